package mwspay

import (
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/ipn/topic_verifiers/sources"
)

func parseTopicsToSources(maybeTopics []arn.ARN) ([]sources.Topic, error) {
	srcs := make([]sources.Topic, 0, len(maybeTopics))

	for _, arn := range maybeTopics {
		topic, err := sources.FromARN(arn)
		if err != nil {
			return nil, errorutil.Wrap(err, "failed to create topic from ARN")
		}

		srcs = append(srcs, topic)
	}

	return srcs, nil
}
