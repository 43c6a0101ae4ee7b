package ports

import "github.com/ghalamif/SensorStat/internal/domain"

// Command is an inbound request decoded once at the transport boundary.
// The set of implementations is closed: only this package can add one.
type Command interface {
	command()
}

// Request carries a decoded command together with where to answer it.
type Request struct {
	ChatID    int64
	MessageID int
	Command   Command
}

// Recipient answers the request's message in its chat.
func (r Request) Recipient() Recipient {
	return Recipient{ChatID: r.ChatID, ReplyTo: r.MessageID}
}

// StartCommand asks for the usage text and the reply keyboard.
type StartCommand struct{}

// StatusCommand runs a pass for the default group and replies with the summary.
type StatusCommand struct{}

// TrendCommand renders the trend chart for the default group.
type TrendCommand struct{}

// ListCommand renders the members of one class from the latest pass.
type ListCommand struct {
	Class domain.StatusClass
}

func (StartCommand) command()  {}
func (StatusCommand) command() {}
func (TrendCommand) command()  {}
func (ListCommand) command()   {}

// Reply keyboard captions offered by the start menu.
const (
	StatusButton = "🔢 Status"
	TrendButton  = "📊 Chart"
)

// Callback payloads for the list actions.
const (
	ListOperationalData    = "list_work_sensors"
	ListNonOperationalData = "list_not_work_sensors"
	ListDegradedData       = "list_do_work_sensors"
)

// ListData returns the callback payload that selects class.
func ListData(class domain.StatusClass) string {
	switch class {
	case domain.Operational:
		return ListOperationalData
	case domain.NonOperational:
		return ListNonOperationalData
	default:
		return ListDegradedData
	}
}

// ParseListData is the inverse of ListData.
func ParseListData(data string) (domain.StatusClass, bool) {
	switch data {
	case ListOperationalData:
		return domain.Operational, true
	case ListNonOperationalData:
		return domain.NonOperational, true
	case ListDegradedData:
		return domain.Degraded, true
	default:
		return 0, false
	}
}
