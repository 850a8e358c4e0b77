package mail

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

// PanicMailParams feeds all three panic notification templates.
type PanicMailParams struct {
	AffectedUsername string
	AffectedName     string
	AffectedEmail    string
	TriggeredBy      string
	Reason           string
	Timestamp        string
	BrandingName     string
}

var (
	userLockedTemplate    = template.New("userLocked").Funcs(sprig.HtmlFuncMap())
	adminAlertTemplate    = template.New("adminAlert").Funcs(sprig.HtmlFuncMap())
	securityAlertTemplate = template.New("securityAlert").Funcs(sprig.HtmlFuncMap())

	//go:embed templates/user_locked.html
	userLockedTemplateRaw string
	//go:embed templates/admin_alert.html
	adminAlertTemplateRaw string
	//go:embed templates/security_alert.html
	securityAlertTemplateRaw string
)

func init() {
	if _, err := userLockedTemplate.Parse(userLockedTemplateRaw); err != nil {
		panic(err)
	}
	if _, err := adminAlertTemplate.Parse(adminAlertTemplateRaw); err != nil {
		panic(err)
	}
	if _, err := securityAlertTemplate.Parse(securityAlertTemplateRaw); err != nil {
		panic(err)
	}
}

func render(t *template.Template, p any) (string, error) {
	b := bytes.Buffer{}
	err := t.Execute(&b, p)
	return b.String(), err
}

// RenderUserLocked renders the mail sent to the affected user.
func RenderUserLocked(p PanicMailParams) (string, error) {
	return render(userLockedTemplate, p)
}

// RenderAdminAlert renders the mail sent to the administrator group.
func RenderAdminAlert(p PanicMailParams) (string, error) {
	return render(adminAlertTemplate, p)
}

// RenderSecurityAlert renders the mail sent to the security contact.
func RenderSecurityAlert(p PanicMailParams) (string, error) {
	return render(securityAlertTemplate, p)
}
