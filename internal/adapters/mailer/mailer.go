package mailer

type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

type SendResult struct {
	ProviderMessageID string
}

// Provider sends mail through one backend.
type Provider interface {
	Name() string
	Send(msg Message) (SendResult, error)
}

type Mailer struct {
	provider    Provider
	fromAddress string
}

func New(provider Provider, fromAddress string) *Mailer {
	return &Mailer{provider: provider, fromAddress: fromAddress}
}

// Send fills in the default sender when msg.From is empty.
func (m *Mailer) Send(msg Message) (SendResult, error) {
	if msg.From == "" {
		msg.From = m.fromAddress
	}
	return m.provider.Send(msg)
}

func (m *Mailer) ProviderName() string { return m.provider.Name() }
