// Package topic_verifiers decides which SNS topics a notification may come
// from.
package topic_verifiers

import (
	"slices"

	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/ipn/topic_verifiers/sources"
)

// Verifier is called with the TopicArn of a notification whose signature has
// already been verified.
type Verifier interface {
	Verify(topicARN string) (bool, error)
}

type VerifyFunc func(topicARN string) (bool, error)

var _ Verifier = VerifyFunc(nil)

func (v VerifyFunc) Verify(topicARN string) (bool, error) {
	return v(topicARN)
}

// Any accepts every topic.
func Any() Verifier {
	return VerifyFunc(func(string) (bool, error) { return true, nil })
}

// MatchesAny accepts notifications published to one of allowed. A TopicArn
// that isn't a valid SNS topic ARN is an error.
func MatchesAny(allowed []sources.Topic) Verifier {
	return VerifyFunc(func(topicARN string) (bool, error) {
		topic, err := sources.Parse(topicARN)
		if err != nil {
			return false, errorutil.Wrap(err, "notification topic isn't an SNS topic")
		}

		return slices.Contains(allowed, topic), nil
	})
}
