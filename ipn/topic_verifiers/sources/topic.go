package sources

import (
	"errors"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/mwspay/internal/errorutil"
)

var (
	// ErrInvalidARN indicates the provided string isn't a valid ARN
	ErrInvalidARN = errors.New("invalid ARN format")

	// ErrInvalidTopicARN indicates the provided ARN is not an SNS topic ARN
	ErrInvalidTopicARN = errors.New("invalid SNS topic ARN")
)

// validTopicPattern adheres to SNS topic naming rules, including the .fifo
// suffix.
var validTopicPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}(\.fifo)?$`)

// Topic is an SNS topic ARN.
type Topic struct {
	arn arn.ARN
}

// FromARN returns the Topic a names, or an error wrapping ErrInvalidTopicARN.
func FromARN(a arn.ARN) (Topic, error) {
	if a.Service != "sns" {
		return Topic{}, errorutil.Wrapf(ErrInvalidTopicARN, "service must be 'sns', got %q", a.Service)
	}

	if a.AccountID == "" || a.Region == "" {
		return Topic{}, errorutil.Wrapf(ErrInvalidTopicARN, "topic ARN %q needs a region and an account", a)
	}

	if !validTopicPattern.MatchString(a.Resource) {
		return Topic{}, errorutil.Wrapf(ErrInvalidTopicARN, "topic name must match pattern %q, got %q",
			validTopicPattern.String(), a.Resource)
	}

	return Topic{arn: a}, nil
}

// Parse is FromARN for an ARN in string form.
func Parse(s string) (Topic, error) {
	a, err := arn.Parse(s)
	if err != nil {
		return Topic{}, errorutil.Wrapf(ErrInvalidARN, "parsing %q: %v", s, err)
	}
	return FromARN(a)
}

// ARN returns the ARN of the topic, it exists because we don't want to allow
// people to construct a Topic without using the blessed paths.
func (t Topic) ARN() arn.ARN {
	return t.arn
}

func (t Topic) Name() string {
	return t.arn.Resource
}

func (t Topic) String() string {
	return t.arn.String()
}
