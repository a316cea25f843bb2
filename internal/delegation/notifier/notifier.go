// Package notifier composes and queues the invitation email sent to a
// nominated trustee.
package notifier

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/mail"
)

// The invitee may or may not have an account yet, so the email carries two
// deep links: login straight into the accept page, or register first and be
// redirected through login into the accept page. The token rides the accept
// URL as a query parameter.
var bodyTemplate = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <title>Invitation Email</title>
  </head>
  <body>
    <h1>You have been named a trusted contact</h1>
    <p>
      {{.DesignatorName}} uses our service to prepare farewell letters for
      their loved ones, and has named you as their trusted contact.
    </p>
    <p>
      A trusted contact confirms on the member's behalf when their letters
      should be delivered, since the service cannot determine that on its
      own. {{.DesignatorName}} is asking you to take on that role.
    </p>
    <p>
      After signing in, please confirm that you accept being
      {{.DesignatorName}}'s trusted contact.
    </p>
    <p>
      Already a member? <a href="{{.LoginLink}}">Click here</a> to sign in.
    </p>
    <p>
      New to the service? <a href="{{.RegisterLink}}">Click here</a> to
      register first.
    </p>
  </body>
</html>
`))

// Enqueuer is satisfied by mail.Dispatcher.
type Enqueuer interface {
	Enqueue(msg mail.Message)
}

// Notifier builds invitation emails against one frontend base URL.
type Notifier struct {
	baseURL string
	queue   Enqueuer
}

func New(baseURL string, queue Enqueuer) *Notifier {
	return &Notifier{baseURL: baseURL, queue: queue}
}

// Links returns the login and register deep links for a raw invitation token.
// The token is deliberately not URL-escaped: the frontend reads everything
// after "token=" verbatim, and JWTs are URL-safe already.
func (n *Notifier) Links(token string) (login, register string) {
	accept := n.baseURL + "/accept?token=" + token
	login = n.baseURL + "/login?redirectUrl=" + accept
	register = n.baseURL + "/register?redirectUrl=" + login
	return login, register
}

// SendInvitation queues the invitation email for the nominated trustee.
func (n *Notifier) SendInvitation(inviteeEmail, designatorName, token string) error {
	login, register := n.Links(token)

	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		DesignatorName string
		LoginLink      string
		RegisterLink   string
	}{
		DesignatorName: designatorName,
		LoginLink:      login,
		RegisterLink:   register,
	})
	if err != nil {
		return fmt.Errorf("render invitation email: %w", err)
	}

	n.queue.Enqueue(mail.Message{
		To:       inviteeEmail,
		Subject:  fmt.Sprintf("%s has asked you to be their trusted contact", designatorName),
		HTMLBody: body.String(),
	})
	return nil
}
