package notification

import (
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/homewatch/homewatch-go/internal/errors"
)

// ShoutrrrProvider pushes alerts to external services (telegram, discord,
// gotify, ...) through shoutrrr delivery URLs.
type ShoutrrrProvider struct {
	sender *router.ServiceRouter
}

// NewShoutrrrProvider builds a provider from one or more shoutrrr URLs.
func NewShoutrrrProvider(urls []string) (*ShoutrrrProvider, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("no push URLs configured").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, errors.New(err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("url_count", len(urls)).
			Build()
	}

	return &ShoutrrrProvider{sender: sender}, nil
}

// Name implements Provider.
func (p *ShoutrrrProvider) Name() string {
	return "shoutrrr"
}

// Push implements Provider. All configured URLs receive the message; the
// first delivery error is returned.
func (p *ShoutrrrProvider) Push(event *Event) error {
	params := &types.Params{}
	params.SetTitle(event.Title)

	body := fmt.Sprintf("%s\n%s", event.Message, event.Timestamp.Format("2006-01-02 15:04:05"))
	for _, err := range p.sender.Send(body, params) {
		if err != nil {
			return errors.New(err).
				Component("notification").
				Category(errors.CategoryDelivery).
				Context("event_id", event.ID).
				Build()
		}
	}
	return nil
}
