package service

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"vetclinic/internal/entities"
	"vetclinic/internal/utils"
)

type SenderService struct {
}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) SendAppointmentEmail(contact entities.BookingContact, req entities.AppointmentRequest, vetName, status string) {
	if contact.Email == "" {
		return
	}

	emailData := entities.AppointmentEmailData{
		UserName:      contact.Name,
		VetName:       vetName,
		DateFormatted: formatAppointmentDate(req.Date, contact.Language),
		TimeFormatted: req.Time,
		Detail:        req.Detail,
		CurrentYear:   time.Now().Year(),
		Language:      contact.Language,
		Status:        status,
	}

	var emailSubject, plainTextBody string
	switch contact.Language {
	case "es":
		emailSubject = fmt.Sprintf("Tu cita en VetClinic está %s - %s a las %s", status, emailData.DateFormatted, emailData.TimeFormatted)
		plainTextBody = fmt.Sprintf(
			"Hola %s,\n\nTu cita en VetClinic está %s.\n\n"+
				"Detalles de la cita:\n"+
				"Veterinario: %s\n"+
				"Fecha: %s\n"+
				"Hora: %s\n"+
				"Motivo: %s\n\n"+
				"Gracias por elegir VetClinic.\n\n"+
				"VetClinic. Todos los derechos reservados.",
			emailData.UserName, status, emailData.VetName,
			emailData.DateFormatted, emailData.TimeFormatted, emailData.Detail,
		)
	default:
		emailSubject = fmt.Sprintf("Your VetClinic appointment is %s - %s at %s", status, emailData.DateFormatted, emailData.TimeFormatted)
		plainTextBody = fmt.Sprintf(
			"Hello %s,\n\nYour appointment at VetClinic is %s.\n\n"+
				"Appointment details:\n"+
				"Veterinarian: %s\n"+
				"Date: %s\n"+
				"Time: %s\n"+
				"Reason: %s\n\n"+
				"Thank you for choosing VetClinic.\n\n"+
				"VetClinic. All rights reserved.",
			emailData.UserName, status, emailData.VetName,
			emailData.DateFormatted, emailData.TimeFormatted, emailData.Detail,
		)
	}

	var htmlBody string
	tmplPath := filepath.Join("internal", "templates", "appointment_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		utils.Sugar().Warnf("Could not parse HTML email template (%s): %v", tmplPath, err)
	} else {
		var htmlBodyBuffer bytes.Buffer
		if err := tmpl.Execute(&htmlBodyBuffer, emailData); err != nil {
			utils.Sugar().Warnf("Could not execute HTML email template for %s: %v", contact.Email, err)
		}
		htmlBody = htmlBodyBuffer.String()
	}
	if htmlBody == "" {
		htmlBody = plainTextBody
	}

	go func(toEmail, userName, subject, plainBody, htmlBodyContent string) {
		errEmail := SendEmailWithSendGrid(toEmail, userName, subject, plainBody, htmlBodyContent)
		if errEmail != nil {
			utils.Sugar().Warnf("Async appointment email to %s failed: %v", toEmail, errEmail)
		}
	}(contact.Email, emailData.UserName, emailSubject, plainTextBody, htmlBody)
}

func (s *SenderService) SendAppointmentSMS(contact entities.BookingContact, req entities.AppointmentRequest, vetName, status string) {
	if contact.Phone == "" {
		return
	}

	var smsMessage string
	switch contact.Language {
	case "es":
		smsMessage = fmt.Sprintf("VetClinic: ¡Tu cita con %s está %s!\nFecha: %s %s.\nMás detalles en tu correo.",
			vetName, status, req.Date, req.Time)
	default:
		smsMessage = fmt.Sprintf("VetClinic: Your appointment with %s is %s!\nDate: %s %s.\nMore details in your email.",
			vetName, status, req.Date, req.Time)
	}

	errSMS := SendSMS(contact.Phone, smsMessage)
	if errSMS != nil {
		utils.Sugar().Warnf("The appointment was booked, but the confirmation SMS to %s failed: %v", contact.Phone, errSMS)
	}
}

func formatAppointmentDate(date, language string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	switch language {
	case "es":
		return parsed.Format("02/01/2006")
	default:
		return parsed.Format("02 Jan 2006")
	}
}
