package email

import "html/template"

const layoutStyle = `
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #f59e0b; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #fffbeb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #f59e0b; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
`

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {
	s.templates["friend_request"] = template.Must(template.New("friend_request").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>` + layoutStyle + `</style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>New friend request</h2>
    </div>
    <div class="content">
        <p>Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
        <p><strong>{{.SenderName}}</strong>{{if .SenderEmail}} ({{.SenderEmail}}){{end}} sent you a friend request.
        Friends can invite each other to collaborative desks.</p>

        <a href="{{.FriendsURL}}" class="btn">Review request</a>
    </div>
    <div class="footer">
        Sticky Desk
    </div>
</div>
</body>
</html>
`))

	s.templates["friend_accepted"] = template.Must(template.New("friend_accepted").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>` + layoutStyle + `</style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Friend request accepted</h2>
    </div>
    <div class="content">
        <p>Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
        <p><strong>{{.FriendName}}</strong> accepted your friend request. You can now add each other to collaborative desks.</p>

        <a href="{{.FriendsURL}}" class="btn">Open Sticky Desk</a>
    </div>
    <div class="footer">
        Sticky Desk
    </div>
</div>
</body>
</html>
`))
}
