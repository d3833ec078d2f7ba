package gateway

import (
	"github.com/flemzord/autoreply/internal/prompt"
	"github.com/flemzord/autoreply/internal/session"
)

// fakeSource is a fixed StatusSource.
type fakeSource struct {
	status session.Status
	info   session.Info
}

func (f *fakeSource) Status() session.Status { return f.status }
func (f *fakeSource) Info() session.Info     { return f.info }

func newFakeSource() *fakeSource {
	return &fakeSource{
		status: session.Status{
			State: "listening", AutoReply: true, Users: 2, InFlight: 1, HistoryCapacity: 50,
			Histories: []session.UserHistory{{UserID: "friend", Messages: 3}, {UserID: "user", Messages: 0}},
		},
		info:   session.Info{Tier: "local_rule", AutoReply: true, Profile: prompt.DefaultProfile()},
	}
}
