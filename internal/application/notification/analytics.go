package notification

import (
	"context"
	"time"

	"github.com/propdev-core/internal/domain"
)

// AnalyticsParams selects the messages an analytics report covers.
type AnalyticsParams struct {
	TenantID string
	From     time.Time
	To       time.Time
}

// ChannelStats aggregates delivery attempts for one channel.
type ChannelStats struct {
	Attempts  int     `json:"attempts"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Rate      float64 `json:"rate"`
}

// AnalyticsReport is the read model computed from message history.
type AnalyticsReport struct {
	TenantID     string                  `json:"tenant_id"`
	From         time.Time               `json:"from"`
	To           time.Time               `json:"to"`
	Total        int                     `json:"total"`
	Sent         int                     `json:"sent"`
	Delivered    int                     `json:"delivered"`
	Read         int                     `json:"read"`
	Clicked      int                     `json:"clicked"`
	Converted    int                     `json:"converted"`
	Failed       int                     `json:"failed"`
	Bounced      int                     `json:"bounced"`
	Unsubscribed int                     `json:"unsubscribed"`
	DeliveryRate float64                 `json:"delivery_rate"`
	ReadRate     float64                 `json:"read_rate"`
	ClickRate    float64                 `json:"click_rate"`
	ByChannel    map[string]ChannelStats `json:"by_channel"`
}

// Analytics computes delivery and engagement aggregates over a date range.
// The funnel counts are cumulative: a read message also counts as delivered.
func (s *service) Analytics(ctx context.Context, params AnalyticsParams) (*AnalyticsReport, error) {
	msgs, err := s.messages.ListByTenantRange(ctx, params.TenantID, params.From, params.To)
	if err != nil {
		return nil, err
	}
	report := &AnalyticsReport{
		TenantID:  params.TenantID,
		From:      params.From,
		To:        params.To,
		Total:     len(msgs),
		ByChannel: make(map[string]ChannelStats),
	}
	for i := range msgs {
		m := &msgs[i]
		switch m.Status {
		case domain.MessageStatusSent:
			report.Sent++
		case domain.MessageStatusDelivered:
			report.Sent++
			report.Delivered++
		case domain.MessageStatusRead:
			report.Sent++
			report.Delivered++
			report.Read++
		case domain.MessageStatusClicked:
			report.Sent++
			report.Delivered++
			report.Read++
			report.Clicked++
		case domain.MessageStatusConverted:
			report.Sent++
			report.Delivered++
			report.Read++
			report.Clicked++
			report.Converted++
		case domain.MessageStatusFailed:
			report.Failed++
		case domain.MessageStatusBounced:
			report.Bounced++
		case domain.MessageStatusUnsubscribed:
			report.Unsubscribed++
		}
		for _, a := range m.Attempts {
			st := report.ByChannel[a.Channel]
			st.Attempts++
			if a.Status == domain.MessageStatusSent {
				st.Succeeded++
			} else {
				st.Failed++
			}
			report.ByChannel[a.Channel] = st
		}
	}
	if report.Sent > 0 {
		report.DeliveryRate = float64(report.Delivered) / float64(report.Sent)
		report.ReadRate = float64(report.Read) / float64(report.Sent)
		report.ClickRate = float64(report.Clicked) / float64(report.Sent)
	}
	for ch, st := range report.ByChannel {
		if st.Attempts > 0 {
			st.Rate = float64(st.Succeeded) / float64(st.Attempts)
			report.ByChannel[ch] = st
		}
	}
	return report, nil
}
