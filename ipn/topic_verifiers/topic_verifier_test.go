package topic_verifiers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasdesr/mwspay/ipn/topic_verifiers"
	"github.com/thomasdesr/mwspay/ipn/topic_verifiers/sources"
)

func TestMatchesAny(t *testing.T) {
	allowed, err := sources.Parse("arn:aws:sns:us-east-1:123456789012:AmazonPayIPN")
	require.NoError(t, err)

	v := topic_verifiers.MatchesAny([]sources.Topic{allowed})

	ok, err := v.Verify("arn:aws:sns:us-east-1:123456789012:AmazonPayIPN")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify("arn:aws:sns:us-east-1:123456789012:SomeoneElse")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.Verify("TopicArn")
	assert.ErrorIs(t, err, sources.ErrInvalidARN)
}

func TestAny(t *testing.T) {
	ok, err := topic_verifiers.Any().Verify("TopicArn")
	require.NoError(t, err)
	assert.True(t, ok)
}
