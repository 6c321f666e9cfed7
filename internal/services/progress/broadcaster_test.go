package progress_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/pkg/clock"
	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
	"github.com/KirkDiggler/hall-runner/internal/services/progress"
)

type BroadcasterTestSuite struct {
	suite.Suite
	clock *clock.Manual
	b     *progress.Broadcaster
}

func TestBroadcasterSuite(t *testing.T) {
	suite.Run(t, new(BroadcasterTestSuite))
}

func (s *BroadcasterTestSuite) SetupTest() {
	s.clock = clock.NewManual(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	b, err := progress.New(&progress.Config{
		Clock:       s.clock,
		IDGenerator: idgen.NewSequential("ev"),
		BacklogSize: 5,
		BufferSize:  4,
	})
	s.Require().NoError(err)
	s.b = b
}

func (s *BroadcasterTestSuite) drain(sub *progress.Subscription, n int) []hall.ProgressEvent {
	var out []hall.ProgressEvent
	for i := 0; i < n; i++ {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		case <-time.After(time.Second):
			s.FailNow(fmt.Sprintf("timed out after %d of %d events", i, n))
		}
	}
	return out
}

func (s *BroadcasterTestSuite) TestNewValidates() {
	_, err := progress.New(&progress.Config{})
	s.Assert().Error(err)
}

func (s *BroadcasterTestSuite) TestPublishStampsEvents() {
	first := s.b.Publish("alice", hall.ProgressEvent{Message: "one"})
	second := s.b.Publish("alice", hall.ProgressEvent{Message: "two", Level: hall.LevelWarn})
	other := s.b.Publish("bob", hall.ProgressEvent{Message: "solo"})

	s.Assert().Equal(uint64(1), first.Seq)
	s.Assert().Equal(uint64(2), second.Seq)
	s.Assert().Equal(uint64(1), other.Seq)
	s.Assert().Equal("ev_1", first.ID)
	s.Assert().Equal(hall.LevelInfo, first.Level)
	s.Assert().Equal(hall.LevelWarn, second.Level)
	s.Assert().Equal(s.clock.Now(), first.Timestamp)
	s.Assert().Equal(uint64(2), s.b.LastSeq("alice"))
}

func (s *BroadcasterTestSuite) TestNoRetroactiveDeliveryWithoutReplay() {
	s.b.Publish("alice", hall.ProgressEvent{Message: "before"})
	sub := s.b.Subscribe("alice", progress.SubscribeOptions{})
	defer sub.Close()

	s.b.Publish("alice", hall.ProgressEvent{Message: "after"})
	got := s.drain(sub, 1)
	s.Assert().Equal("after", got[0].Message)
}

func (s *BroadcasterTestSuite) TestTwoSubscribersReceiveEverythingInOrder() {
	first := s.b.Subscribe("account:a1", progress.SubscribeOptions{})
	second := s.b.Subscribe("account:a1", progress.SubscribeOptions{})
	defer first.Close()
	defer second.Close()

	for i := 1; i <= 3; i++ {
		s.b.Publish("account:a1", hall.ProgressEvent{AccountID: "a1", Floor: i})
	}
	got1 := s.drain(first, 3)
	got2 := s.drain(second, 3)

	s.Require().Len(got1, 3)
	s.Require().Len(got2, 3)
	for i := 0; i < 3; i++ {
		s.Assert().Equal(i+1, got1[i].Floor)
		s.Assert().Equal(got1[i], got2[i])
	}
}

func (s *BroadcasterTestSuite) TestReplayBacklogIsBounded() {
	for i := 1; i <= 8; i++ {
		s.b.Publish("alice", hall.ProgressEvent{Floor: i})
	}

	backlog := s.b.Backlog("alice")
	s.Require().Len(backlog, 5)
	s.Assert().Equal(4, backlog[0].Floor)

	sub := s.b.Subscribe("alice", progress.SubscribeOptions{ReplayBacklog: true})
	defer sub.Close()
	got := s.drain(sub, 5)
	s.Assert().Equal(4, got[0].Floor)
	s.Assert().Equal(8, got[4].Floor)
}

func (s *BroadcasterTestSuite) TestReplayAfterSeq() {
	for i := 1; i <= 4; i++ {
		s.b.Publish("alice", hall.ProgressEvent{Floor: i})
	}

	sub := s.b.Subscribe("alice", progress.SubscribeOptions{ReplayBacklog: true, AfterSeq: 2})
	defer sub.Close()
	got := s.drain(sub, 2)
	s.Assert().Equal(uint64(3), got[0].Seq)
	s.Assert().Equal(uint64(4), got[1].Seq)
}

func (s *BroadcasterTestSuite) TestSlowSubscriberDropsWithoutBlocking() {
	slow := s.b.Subscribe("alice", progress.SubscribeOptions{})
	fast := s.b.Subscribe("alice", progress.SubscribeOptions{})
	defer slow.Close()
	defer fast.Close()

	published := make(chan struct{})
	go func() {
		for i := 1; i <= 10; i++ {
			s.b.Publish("alice", hall.ProgressEvent{Floor: i})
			// keep the fast subscriber drained
			<-fast.Events()
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		s.FailNow("publish blocked on a slow subscriber")
	}

	s.Assert().Equal(uint64(6), slow.Dropped())
	s.Assert().Equal(uint64(0), fast.Dropped())
	got := s.drain(slow, 4)
	s.Assert().Equal(1, got[0].Floor)
}

func (s *BroadcasterTestSuite) TestCloseDetaches() {
	sub := s.b.Subscribe("alice", progress.SubscribeOptions{})
	s.Assert().Equal(1, s.b.SubscriberCount("alice"))

	sub.Close()
	sub.Close()
	s.Assert().Equal(0, s.b.SubscriberCount("alice"))

	_, ok := <-sub.Events()
	s.Assert().False(ok)

	s.b.Publish("alice", hall.ProgressEvent{Message: "after close"})
}

func (s *BroadcasterTestSuite) TestAccountTopic() {
	s.Assert().Equal("account:a1", progress.AccountTopic("a1"))
}
