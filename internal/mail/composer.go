package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// WelcomeInput describes a freshly created account.
type WelcomeInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Identifier  string `json:"identifier"` // roll number for students, username for admins
	Password    string `json:"password"`
	Role        string `json:"role"`
}

func (in WelcomeInput) IsStudent() bool {
	return in.Role == "student"
}

// Content is a composed email.
type Content struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Composer writes the welcome email for a new account.
type Composer interface {
	ComposeWelcome(ctx context.Context, in WelcomeInput) (Content, error)
}

const welcomeSubject = "Welcome to Campus Cruiser!"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html><body style="font-family:sans-serif">
<h2>Welcome to Campus Cruiser, {{.FullName}}!</h2>
<p>Your account has been created. You can now sign in and see your shuttle route.</p>
<table>
<tr><td>Email</td><td>{{.Email}}</td></tr>
{{if .PhoneNumber}}<tr><td>Phone</td><td>{{.PhoneNumber}}</td></tr>{{end}}
<tr><td>{{if .IsStudent}}Roll Number{{else}}Username{{end}}</td><td>{{.Identifier}}</td></tr>
<tr><td>Password</td><td>{{.Password}}</td></tr>
<tr><td>Role</td><td>{{.Role}}</td></tr>
</table>
</body></html>`))

// TemplateComposer renders a fixed HTML template.
type TemplateComposer struct{}

func (TemplateComposer) ComposeWelcome(_ context.Context, in WelcomeInput) (Content, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, in); err != nil {
		return Content{}, err
	}
	return Content{Subject: welcomeSubject, Body: buf.String()}, nil
}

// GeminiComposer asks a Gemini model for the subject and HTML body.
type GeminiComposer struct {
	client *genai.Client
	model  string
}

func NewGeminiComposer(ctx context.Context, apiKey, model string) (*GeminiComposer, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiComposer{client: client, model: model}, nil
}

func welcomePrompt(in WelcomeInput) string {
	var b strings.Builder
	b.WriteString("You are an assistant responsible for creating welcome emails for new users of the Campus Cruiser app.\n")
	b.WriteString("Generate a friendly and welcoming email to the user with their login credentials.\n")
	fmt.Fprintf(&b, "The subject of the email should be %q.\n", welcomeSubject)
	b.WriteString("The body should be formatted in HTML with a professional and clean look, including a title, a warm welcome message, and the user's login details.\n\n")
	b.WriteString("Here is the user's information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", in.FullName)
	fmt.Fprintf(&b, "- Email: %s\n", in.Email)
	if in.PhoneNumber != "" {
		fmt.Fprintf(&b, "- Phone: %s\n", in.PhoneNumber)
	}
	label := "Username"
	if in.IsStudent() {
		label = "Roll Number"
	}
	fmt.Fprintf(&b, "- Login Identifier (%s): %s\n", label, in.Identifier)
	fmt.Fprintf(&b, "- Password: %s\n", in.Password)
	fmt.Fprintf(&b, "- Role: %s\n", in.Role)
	return b.String()
}

var contentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject": {Type: genai.TypeString, Description: "The subject of the email."},
		"body":    {Type: genai.TypeString, Description: "The HTML body of the email."},
	},
	Required: []string{"subject", "body"},
}

func (g *GeminiComposer) ComposeWelcome(ctx context.Context, in WelcomeInput) (Content, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(welcomePrompt(in)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   contentSchema,
	})
	if err != nil {
		return Content{}, fmt.Errorf("generate welcome email: %w", err)
	}
	return parseContent(resp.Text())
}

func parseContent(raw string) (Content, error) {
	var c Content
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Content{}, fmt.Errorf("decode generated email: %w", err)
	}
	if c.Subject == "" || c.Body == "" {
		return Content{}, errors.New("generated email is missing subject or body")
	}
	return c, nil
}

// Welcomer composes and sends welcome emails. When the primary composer
// fails, it falls back to the template.
type Welcomer struct {
	composer Composer
	sender   Sender
}

func NewWelcomer(composer Composer, sender Sender) *Welcomer {
	if composer == nil {
		composer = TemplateComposer{}
	}
	return &Welcomer{composer: composer, sender: sender}
}

// SendWelcome reports whether the welcome email was handed to the mail relay.
func (w *Welcomer) SendWelcome(ctx context.Context, in WelcomeInput) bool {
	content, err := w.composer.ComposeWelcome(ctx, in)
	if err != nil {
		logrus.WithError(err).WithField("to", in.Email).Warn("Failed to generate email content, using template")
		content, err = TemplateComposer{}.ComposeWelcome(ctx, in)
		if err != nil {
			logrus.WithError(err).Error("Failed to render welcome template")
			return false
		}
	}
	return w.sender.Send(in.Email, content.Subject, content.Body)
}
