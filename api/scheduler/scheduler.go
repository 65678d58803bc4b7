package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mindsell/tutor-portal-api/databases"
)

// Mailer sends an email to the admin address
type Mailer interface {
	Send(subject, body string) error
}

// Scheduler handles the periodic background jobs: expiring offers and the
// daily unread chat digest
type Scheduler struct {
	cron    *cron.Cron
	OfferDB databases.OfferDatabase
	ConvDB  databases.ConversationDatabase
	Mailer  Mailer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(offerDB databases.OfferDatabase, convDB databases.ConversationDatabase, mailer Mailer) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		OfferDB: offerDB,
		ConvDB:  convDB,
		Mailer:  mailer,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Deactivate expired offers daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.expireOffers)
	if err != nil {
		zap.S().Errorw("failed to register offer expiry job", "error", err)
	}

	// Remind the admin of unread conversations daily at 7 AM UTC
	_, err = s.cron.AddFunc("0 7 * * *", s.unreadDigest)
	if err != nil {
		zap.S().Errorw("failed to register unread digest job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// expireOffers flips active to false on every non-evergreen offer whose
// expiry has passed. Evergreen offers are never touched.
func (s *Scheduler) expireOffers() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	filter := bson.M{
		"active":    true,
		"evergreen": false,
		"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(time.Now())},
	}
	res, err := s.OfferDB.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"active": false}})
	if err != nil {
		zap.S().Errorw("failed to expire offers", "error", err)
		return
	}
	if res.ModifiedCount > 0 {
		zap.S().Infow("expired offers", "count", res.ModifiedCount)
	}
}

// unreadDigest emails the admin a list of conversations that still carry
// unread student messages. No email is sent when everything has been read.
func (s *Scheduler) unreadDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	convs, err := s.ConvDB.Find(ctx, bson.M{"hasUnread": true})
	if err != nil {
		zap.S().Errorw("failed to find unread conversations", "error", err)
		return
	}
	if len(convs) == 0 {
		return
	}

	var names []string
	for _, c := range convs {
		name := c.StudentName
		if name == "" {
			name = c.ID
		}
		names = append(names, name)
	}

	body := fmt.Sprintf("Hai %d conversazioni con messaggi non letti:\n\n%s",
		len(convs), strings.Join(names, "\n"))
	if err := s.Mailer.Send("Messaggi non letti nel portale", body); err != nil {
		zap.S().Errorw("failed to send unread digest email", "error", err)
		return
	}
	zap.S().Infow("sent unread digest", "conversations", len(convs))
}
