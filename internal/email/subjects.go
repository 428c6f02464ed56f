package email

const (
	subjectNewDemoFmt = "Nueva demo - %s"
)
