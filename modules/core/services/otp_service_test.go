package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrumlabs/backoffice/pkg/configuration"
)

const testPhone = "13800000000"

func smsConf() configuration.SmsOptions {
	return configuration.SmsOptions{
		MaxRetryTimes: 3,
		AppName:       "backoffice",
		OtpExpiry:     5 * time.Minute,
	}
}

func newOtpFixture(conf configuration.SmsOptions) (*OtpService, *memCache, *fakeGateway) {
	c := newMemCache()
	gw := &fakeGateway{}
	return NewOtpService(c, gw, conf), c, gw
}

func TestOtpIssue_SendsGeneratedCode(t *testing.T) {
	svc, _, gw := newOtpFixture(smsConf())
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	require.Len(t, gw.sent, 1)
	assert.Equal(t, testPhone, gw.sent[0].phoneNumber)
	assert.Equal(t, code, gw.sent[0].pinCode)
}

func TestOtpIssue_IdempotentWithinWindow(t *testing.T) {
	svc, _, _ := newOtpFixture(smsConf())
	ctx := context.Background()

	first, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestOtpIssue_GatewayFailureDoesNotFailIssuance(t *testing.T) {
	svc, _, gw := newOtpFixture(smsConf())
	gw.err = assert.AnError
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)

	// The undelivered code is still the active challenge.
	ok, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpIssue_DebugModeUsesFixedCodeAndSkipsGateway(t *testing.T) {
	conf := smsConf()
	conf.DebugMode = true
	svc, _, gw := newOtpFixture(conf)
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, "111111", code)
	assert.Empty(t, gw.sent)

	ok, err := svc.Verify(ctx, testPhone, "111111")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpVerify_CorrectCodeIsSingleUse(t *testing.T) {
	svc, _, _ := newOtpFixture(smsConf())
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok, "a consumed code must not verify again")
}

func TestOtpVerify_NoChallenge(t *testing.T) {
	svc, _, _ := newOtpFixture(smsConf())

	ok, err := svc.Verify(context.Background(), testPhone, "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOtpVerify_ExpiredChallenge(t *testing.T) {
	svc, c, _ := newOtpFixture(smsConf())
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	c.drop("sms:pin:" + testPhone)

	ok, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOtpVerify_LockoutAfterMaxWrongAttempts(t *testing.T) {
	svc, _, _ := newOtpFixture(smsConf())
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, err := svc.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// Locked out now: even the correct code is rejected.
	ok, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOtpVerify_ReissueAfterLockoutStartsFreshCycle(t *testing.T) {
	svc, _, _ := newOtpFixture(smsConf())
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := svc.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
	}

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	ok, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpVerify_ReissueResetsRetryCounter(t *testing.T) {
	svc, _, _ := newOtpFixture(smsConf())
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := svc.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
	}

	// Reissue keeps the code but the attempt budget starts over.
	reissued, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)
	require.Equal(t, code, reissued)
	for i := 0; i < 2; i++ {
		_, err := svc.Verify(ctx, testPhone, "000000")
		require.NoError(t, err)
	}
	ok, err := svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpVerify_HonorsConfiguredRetryLimit(t *testing.T) {
	conf := smsConf()
	conf.MaxRetryTimes = 1
	svc, _, _ := newOtpFixture(conf)
	ctx := context.Background()

	code, err := svc.Issue(ctx, testPhone)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, testPhone, "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Verify(ctx, testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok, "one wrong attempt exhausts a limit of 1")
}
