package entities

type AppointmentEmailData struct {
	UserName      string
	VetName       string
	DateFormatted string
	TimeFormatted string
	Detail        string
	CurrentYear   int
	Language      string
	Status        string
}
