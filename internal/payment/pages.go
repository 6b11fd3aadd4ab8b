package payment

import (
	"html/template"
	"strings"
)

// The callback lands in the payer's browser, so outcomes render as small
// standalone pages that bounce back to the dashboard.

var noticeTmpl = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html lang="fa" dir="rtl">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="6;url=/dashboard">
<title>{{.Title}}</title>
<style>
body { font-family: Tahoma, sans-serif; background: #f5f6fa; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
.card { background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,.08); padding: 40px 48px; max-width: 420px; text-align: center; }
.card h1 { font-size: 20px; margin: 0 0 12px; color: {{.Color}}; }
.card p { color: #555; margin: 0 0 20px; line-height: 1.8; }
.card a { color: #2962ff; text-decoration: none; }
</style>
</head>
<body>
<div class="card">
<h1>{{.Heading}}</h1>
<p>{{.Message}}</p>
<a href="/dashboard">بازگشت به داشبورد</a>
</div>
</body>
</html>
`))

type noticePage struct {
	Title   string
	Heading string
	Message string
	Color   template.CSS
}

func renderNotice(p noticePage) string {
	var b strings.Builder
	if err := noticeTmpl.Execute(&b, p); err != nil {
		return "<!DOCTYPE html><html><body><a href=\"/dashboard\">Dashboard</a></body></html>"
	}
	return b.String()
}

func successPage(refID string) string {
	return renderNotice(noticePage{
		Title:   "پرداخت موفق",
		Heading: "پرداخت با موفقیت انجام شد",
		Message: "کد پیگیری پرداخت شما: " + refID,
		Color:   "#2e7d32",
	})
}

func alreadyVerifiedPage(refID string) string {
	return renderNotice(noticePage{
		Title:   "پرداخت تایید شده",
		Heading: "این پرداخت قبلا تایید شده است",
		Message: "کد پیگیری پرداخت شما: " + refID,
		Color:   "#f9a825",
	})
}

func cancelledPage() string {
	return renderNotice(noticePage{
		Title:   "پرداخت لغو شد",
		Heading: "پرداخت لغو شد",
		Message: "پرداخت توسط شما لغو شد. در صورت تمایل می‌توانید دوباره تلاش کنید.",
		Color:   "#c62828",
	})
}

func amountNotFoundPage() string {
	return renderNotice(noticePage{
		Title:   "خطا در پرداخت",
		Heading: "اطلاعات پرداخت یافت نشد",
		Message: "اطلاعات این پرداخت یافت نشد یا قبلا پردازش شده است.",
		Color:   "#c62828",
	})
}

func failedPage() string {
	return renderNotice(noticePage{
		Title:   "پرداخت ناموفق",
		Heading: "پرداخت ناموفق بود",
		Message: "تایید پرداخت انجام نشد. مبلغی از حساب شما کسر نشده است.",
		Color:   "#c62828",
	})
}

func unavailablePage() string {
	return renderNotice(noticePage{
		Title:   "خطای درگاه پرداخت",
		Heading: "درگاه پرداخت در دسترس نیست",
		Message: "ارتباط با درگاه پرداخت برقرار نشد. لطفا بعدا دوباره تلاش کنید.",
		Color:   "#c62828",
	})
}
