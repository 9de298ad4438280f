// Package pages renders the server-side HTML pages. Each page is a
// templ.Component backed by an html/template definition.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/ctxkeys"
	"github.com/boibazar/boibazar/internal/model"
)

//go:embed templates/*.html
var files embed.FS

var tmpl = template.Must(template.New("pages").Funcs(template.FuncMap{
	"alert":  alertClass,
	"button": buttonClass,
	"date":   formatDate,
	"html":   func(s string) template.HTML { return template.HTML(s) },
}).ParseFS(files, "templates/*.html"))

const (
	alertBase  = "rounded-md border px-4 py-3 text-sm"
	buttonBase = "inline-flex items-center justify-center rounded-md px-4 py-2 text-sm font-medium"
)

var alertVariants = map[string]string{
	"error":   "border-red-300 bg-red-50 text-red-800",
	"success": "border-green-300 bg-green-50 text-green-800",
	"info":    "border-blue-300 bg-blue-50 text-blue-800",
}

var buttonVariants = map[string]string{
	"primary":   "bg-emerald-700 text-white hover:bg-emerald-800",
	"secondary": "border border-gray-300 bg-white text-gray-800 hover:bg-gray-50",
	"danger":    "bg-red-600 text-white hover:bg-red-700",
	"google":    "border border-gray-300 bg-white px-6 text-gray-800",
}

func alertClass(variant string) string {
	return twmerge.Merge(alertBase, alertVariants[variant])
}

func buttonClass(variant string) string {
	return twmerge.Merge(buttonBase, buttonVariants[variant])
}

func formatDate(t any) string {
	switch v := t.(type) {
	case time.Time:
		return v.Format("January 2, 2006")
	case *time.Time:
		if v != nil {
			return v.Format("January 2, 2006")
		}
	}
	return ""
}

type view struct {
	Title        string
	AppName      string
	SupportEmail string
	CSRFToken    string
	Nonce        string
	Path         string
	User         *model.User
	Data         any
}

func page(name, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		v := view{
			Title:     title,
			AppName:   "Boibazar",
			CSRFToken: ctxkeys.CSRFToken(ctx),
			Nonce:     templ.GetNonce(ctx),
			Path:      ctxkeys.URLPath(ctx),
			User:      ctxkeys.User(ctx),
			Data:      data,
		}
		if cfg := ctxkeys.Config(ctx); cfg != nil {
			if cfg.AppName != "" {
				v.AppName = cfg.AppName
			}
			v.SupportEmail = cfg.SupportEmail
		}
		return tmpl.ExecuteTemplate(w, name, v)
	})
}

// Flash is the message line shown above a form.
type Flash struct {
	Error  string
	Notice string
}

func Home() templ.Component {
	return page("home", "Boibazar", nil)
}

type LoginData struct {
	Flash
	Email string
	// ShowResend offers the resend form for unconfirmed accounts.
	ShowResend bool
}

func Login(data LoginData) templ.Component {
	return page("login", "Log in", data)
}

type RegisterData struct {
	Flash
	Email         string
	Name          string
	RollNumber    string
	Semester      string
	Department    string
	InstituteName string
	Catalog       *catalog.Catalog
}

func Register(data RegisterData) templ.Component {
	return page("register", "Create account", data)
}

type VerifyEmailData struct {
	Flash
	Email string
	// RetryAfter is set while the resend cooldown runs.
	RetryAfter int
}

func VerifyEmail(data VerifyEmailData) templ.Component {
	return page("verify_email", "Confirm your email", data)
}

// CallbackRelay posts the URL fragment, which never reaches the server, back
// to /auth/callback.
func CallbackRelay() templ.Component {
	return page("callback_relay", "Verifying", nil)
}

func EmailConfirmed() templ.Component {
	return page("email_confirmed", "Email confirmed", nil)
}

func ForgotPassword(flash Flash) templ.Component {
	return page("forgot_password", "Reset password", flash)
}

type ResetPasswordData struct {
	Flash
	Token string
}

func ResetPassword(data ResetPasswordData) templ.Component {
	return page("reset_password", "Choose a new password", data)
}

type MergeData struct {
	Flash
	Email string
}

func AccountMerge(data MergeData) templ.Component {
	return page("account_merge", "Link your accounts", data)
}

// MergeResultData is shown after the merge. The handler sends a Refresh
// header pointing at Redirect after Delay seconds.
type MergeResultData struct {
	Success  bool
	Message  string
	Redirect string
	Delay    int
}

func MergeResult(data MergeResultData) templ.Component {
	return page("merge_result", "Link your accounts", data)
}

type BannedData struct {
	Status    *model.BanStatus
	Remaining model.BanRemaining
}

func Banned(data BannedData) templ.Component {
	return page("banned", "Account suspended", data)
}

type ProfileData struct {
	Flash
	Email       string
	HasPassword bool
	Profile     *model.Profile
	Catalog     *catalog.Catalog
	// MergeSuggested is set for google accounts that share an email with a
	// password account.
	MergeSuggested bool
}

func Profile(data ProfileData) templ.Component {
	return page("profile", "Your profile", data)
}

type VerificationData struct {
	Flash
	Record *model.VerificationRecord
}

func Verification(data VerificationData) templ.Component {
	return page("verification", "Verify your identity", data)
}

func Notifications(list []*model.Notification) templ.Component {
	return page("notifications", "Notifications", list)
}

func Student(profile *model.Profile) templ.Component {
	return page("student", profile.Name, profile)
}

type LegalData struct {
	Title       string
	Content     string
	LastUpdated string
}

func Legal(data LegalData) templ.Component {
	return page("legal", data.Title, data)
}

type ErrorData struct {
	Status  int
	Title   string
	Message string
}

func Error(data ErrorData) templ.Component {
	return page("error", data.Title, data)
}
