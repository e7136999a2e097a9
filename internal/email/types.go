package email

// Шаблоны писем
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password-reset"
)

// TemplateData - данные для шаблонов писем
type TemplateData map[string]interface{}

// Message - письмо по шаблону. Name и URL доступны шаблону как .FirstName и .URL
type Message struct {
	To       string
	Name     string
	Subject  string
	Template string
	URL      string
	Data     TemplateData
}

func (m Message) templateData() TemplateData {
	data := TemplateData{
		"FirstName": m.Name,
		"URL":       m.URL,
		"Subject":   m.Subject,
	}
	for k, v := range m.Data {
		data[k] = v
	}
	return data
}
