package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// These path segments are hex for "response" and "private". The web client
// routes on them, so they must not change.
const publicResponsePath = "/public/726573706f6e7365/%s/70726976617465"

const questionnaireSubject = "Dr Jayaro needs you to complete the following questionnaire"

var (
	questionnaireTmpl = template.Must(template.New("questionnaire").Parse(`
<p>Dear {{.FirstName}},</p>
<p>Dr Jayaro needs you to complete the following questionnaire in relation to your ASD assessment.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link would be active for 24 hours.</p>
<p>If you have any doubts please do not hesitate to ask the clinic.</p>
<hr/>
<p>Kind regards,</p>
<p>The Hazelton Clinic Team</p>
`))

	completedTmpl = template.Must(template.New("completed").Parse(`
<p>Hello,</p>
<p>The questionnaire has been completed by {{.FirstName}} {{.LastName}}.</p>
<p>Now, you can go to the app to see the results here: <a href="{{.Link}}">{{.Link}}</a></p>
<hr/>
<p>Regards,</p>
<p>The Hazelton Clinic Team</p>
`))

	resetTmpl = template.Must(template.New("reset").Parse(`
<p>Hello,</p>
<p>You have requested to reset your password. Please click the link below to set a new password:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link will expire in {{.Hours}} hours.</p>
<p>If you did not request this password reset, please ignore this email.</p>
`))
)

// Composer builds the service's emails. Links point at ClientURL.
type Composer struct {
	clientURL string
}

func NewComposer(clientURL string) *Composer {
	return &Composer{clientURL: strings.TrimRight(clientURL, "/")}
}

func (c *Composer) QuestionnaireLink(responseID string) string {
	return c.clientURL + fmt.Sprintf(publicResponsePath, responseID)
}

func (c *Composer) ResponseLink(responseID string) string {
	return c.clientURL + "/responses/" + responseID
}

func (c *Composer) ResetPasswordLink(token string) string {
	return c.clientURL + "/reset-password?token=" + token
}

// Recipient is the minimal addressee data the templates need.
type Recipient struct {
	Email     string
	FirstName string
	LastName  string
}

// Questionnaire invites the examinee to fill in a pending response.
func (c *Composer) Questionnaire(to Recipient, responseID, replyTo string) (*Message, error) {
	link := c.QuestionnaireLink(responseID)
	body, err := render(questionnaireTmpl, map[string]string{"FirstName": to.FirstName, "Link": link})
	if err != nil {
		return nil, err
	}
	return &Message{
		To:             []string{to.Email},
		ReplyTo:        replyTo,
		Subject:        questionnaireSubject,
		HTML:           body,
		Text:           fmt.Sprintf("Dear %s, please complete the questionnaire: %s", to.FirstName, link),
		IdempotencyKey: "questionnaire-" + responseID,
	}, nil
}

// ResponseCompleted tells the recipient that the examinee submitted answers.
func (c *Composer) ResponseCompleted(to Recipient, examinee Recipient, responseID, replyTo string) (*Message, error) {
	link := c.ResponseLink(responseID)
	body, err := render(completedTmpl, map[string]string{
		"FirstName": examinee.FirstName,
		"LastName":  examinee.LastName,
		"Link":      link,
	})
	if err != nil {
		return nil, err
	}
	return &Message{
		To:             []string{to.Email},
		ReplyTo:        replyTo,
		Subject:        questionnaireSubject,
		HTML:           body,
		Text:           fmt.Sprintf("The questionnaire has been completed by %s %s: %s", examinee.FirstName, examinee.LastName, link),
		IdempotencyKey: "completed-" + responseID,
	}, nil
}

func (c *Composer) PasswordReset(toEmail, token string, validHours int) (*Message, error) {
	link := c.ResetPasswordLink(token)
	body, err := render(resetTmpl, map[string]any{"Link": link, "Hours": validHours})
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      []string{toEmail},
		Subject: "Password Reset Request",
		HTML:    body,
		Text:    fmt.Sprintf("Reset your password here: %s (expires in %d hours)", link, validHours),
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
