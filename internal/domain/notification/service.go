package notification

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Service fans one message out to every (recipient, channel) pair
// concurrently and reports per-delivery outcomes. Unlike the media
// operations, dispatch is explicitly partial-success: one bounced email
// never aborts the batch.
type Service struct {
	mailer Mailer
	sms    SMSSender
}

func NewService(mailer Mailer, sms SMSSender) *Service {
	return &Service{mailer: mailer, sms: sms}
}

func (s *Service) Dispatch(ctx context.Context, msg Message, recipients []Recipient) *Summary {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []DeliveryResult
	)

	record := func(r DeliveryResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for _, rcpt := range recipients {
		for _, channel := range rcpt.Channels {
			wg.Add(1)
			go func(rcpt Recipient, channel string) {
				defer wg.Done()
				record(s.deliver(ctx, msg, rcpt, channel))
			}(rcpt, channel)
		}
	}
	wg.Wait()

	// goroutine completion order is not stable
	sort.Slice(results, func(i, j int) bool {
		if results[i].Recipient != results[j].Recipient {
			return results[i].Recipient < results[j].Recipient
		}
		return results[i].Channel < results[j].Channel
	})

	summary := &Summary{Results: results}
	for _, r := range results {
		if r.Success {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}

	log.Printf("notification dispatch type=%s sent=%d failed=%d", msg.Type, summary.Sent, summary.Failed)
	return summary
}

func (s *Service) deliver(ctx context.Context, msg Message, rcpt Recipient, channel string) DeliveryResult {
	result := DeliveryResult{Recipient: rcpt.Name, Channel: channel}

	var err error
	switch channel {
	case ChannelEmail:
		if rcpt.Email == "" {
			err = fmt.Errorf("recipient has no email address")
		} else {
			err = s.mailer.SendEmail(ctx, rcpt.Email, msg.Subject, msg.Body)
		}
	case ChannelSMS:
		if rcpt.Phone == "" {
			err = fmt.Errorf("recipient has no phone number")
		} else {
			err = s.sms.SendSMS(ctx, rcpt.Phone, msg.Body)
		}
	default:
		err = fmt.Errorf("unknown channel %q", channel)
	}

	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}
