package arxiv

import (
	"context"
	"time"

	"ArxivDigest/internal/domain"
)

// PollState names the stages of the bounded feed-wait loop.
type PollState int

const (
	PollInit PollState = iota
	PollPolling
	PollSuccess
	PollExhausted
)

// PollOutcome reports how a bounded poll ended. An exhausted poll is
// a valid terminal outcome: Papers may be empty without an error.
type PollOutcome struct {
	State   PollState
	Papers  []domain.Paper
	Polls   int
	Elapsed time.Duration
}

// pollUntilPopulated fetches once and, while the result is empty and
// the wait budget allows another interval, sleeps and refetches. The
// sleep function is injected so tests run with a fake clock. Fetch
// errors abort the loop immediately.
func pollUntilPopulated(
	ctx context.Context,
	fetch func(context.Context) ([]domain.Paper, error),
	wait, interval time.Duration,
	sleep func(time.Duration),
) (PollOutcome, error) {
	outcome := PollOutcome{State: PollInit}
	for {
		papers, err := fetch(ctx)
		if err != nil {
			return outcome, err
		}
		outcome.Polls++
		outcome.Papers = papers

		if len(papers) > 0 {
			outcome.State = PollSuccess
			return outcome, nil
		}

		if interval <= 0 || outcome.Elapsed+interval > wait {
			outcome.State = PollExhausted
			return outcome, nil
		}

		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		sleep(interval)
		outcome.Elapsed += interval
		outcome.State = PollPolling
	}
}
