package sendgrid

import (
	"context"
	"fmt"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService interface {
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error
}

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string) EmailService {
	return &emailService{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

// SendOrderConfirmation implements EmailService.
func (e *emailService) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	from := mail.NewEmail(e.fromName, e.fromEmail)
	recipient := mail.NewEmail(order.ShippingAddress.Name, to)

	message := mail.NewV3Mail()
	message.SetFrom(from)

	personalization := mail.NewPersonalization()
	personalization.AddTos(recipient)
	personalization.Subject = fmt.Sprintf("Your Aurelle order %s is confirmed", order.ID)
	message.AddPersonalizations(personalization)

	body := fmt.Sprintf("Thanks for your order!\n\nOrder: %s\nTotal: %.2f\nItems:\n", order.ID, order.Total)
	for _, item := range order.Items {
		body += fmt.Sprintf("  - %s x%d @ %.2f\n", item.Name, item.Quantity, item.UnitPrice)
	}

	message.AddContent(mail.NewContent("text/plain", body))

	response, err := e.client.Send(message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}
