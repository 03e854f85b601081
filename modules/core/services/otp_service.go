package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"hash/fnv"
	"math/big"
	"strconv"
	"sync"

	"github.com/ferrumlabs/backoffice/pkg/cache"
	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/configuration"
	"github.com/ferrumlabs/backoffice/pkg/sms"
)

const (
	// debugPinCode is returned for every issuance when debug mode is on; the
	// gateway is never called in that mode.
	debugPinCode = "111111"

	pinCodeOperation = "login"

	lockStripes = 64
)

// OtpService runs the SMS one-time-passcode protocol. Per phone number the
// protocol moves NoChallenge -> Issued -> {Verified | Expired |
// RetriesExhausted}; challenge and retry counter live only in the cache and
// share its sliding expiry window, so Expired is reached by the cache
// dropping the keys, not by timestamp checks here.
type OtpService struct {
	cache   cache.Cache
	gateway sms.Gateway
	conf    configuration.SmsOptions

	// Issue and Verify for one phone number are serialized here: the retry
	// counter's read-check-increment is not atomic by itself, and two
	// concurrent wrong submissions must not both pass the lockout check.
	locks [lockStripes]sync.Mutex
}

func NewOtpService(c cache.Cache, gateway sms.Gateway, conf configuration.SmsOptions) *OtpService {
	return &OtpService{
		cache:   c,
		gateway: gateway,
		conf:    conf,
	}
}

func pinKey(phoneNumber string) string {
	return "sms:pin:" + phoneNumber
}

func retryKey(phoneNumber string) string {
	return "sms:retry:" + phoneNumber
}

func (s *OtpService) lockFor(phoneNumber string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(phoneNumber))
	return &s.locks[h.Sum32()%lockStripes]
}

// Issue returns the active code for the phone number, creating one if none
// exists. Issuance is idempotent within the expiry window: the existing code
// is reused and the retry counter starts over. Gateway failures are logged
// and do not fail issuance; the code stays valid for verification.
func (s *OtpService) Issue(ctx context.Context, phoneNumber string) (string, error) {
	mu := s.lockFor(phoneNumber)
	mu.Lock()
	defer mu.Unlock()

	code, err := s.cache.Get(ctx, pinKey(phoneNumber), s.conf.OtpExpiry)
	switch {
	case err == nil:
		// Reuse the unexpired challenge.
	case errors.Is(err, cache.ErrMiss):
		code, err = s.generateCode()
		if err != nil {
			return "", err
		}
		if err := s.cache.Set(ctx, pinKey(phoneNumber), code, s.conf.OtpExpiry); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	if err := s.cache.Set(ctx, retryKey(phoneNumber), "0", s.conf.OtpExpiry); err != nil {
		return "", err
	}

	if !s.conf.DebugMode {
		if err := s.gateway.SendPinCode(ctx, pinCodeOperation, phoneNumber, code); err != nil {
			composables.UseLogger(ctx).WithError(err).Errorf("failed to send pin code to %s", phoneNumber)
		}
	}
	return code, nil
}

// Verify checks a submitted code. It fails closed: no challenge, an exhausted
// counter, or a reached lockout threshold all yield false, and lockout clears
// the challenge so the remaining attempts cannot be probed. A correct code is
// single-use. Wrong codes are an expected outcome, not an error; the error
// return carries cache failures only.
func (s *OtpService) Verify(ctx context.Context, phoneNumber, submittedCode string) (bool, error) {
	mu := s.lockFor(phoneNumber)
	mu.Lock()
	defer mu.Unlock()

	code, err := s.cache.Get(ctx, pinKey(phoneNumber), s.conf.OtpExpiry)
	if errors.Is(err, cache.ErrMiss) {
		if err := s.clear(ctx, phoneNumber); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	retries, err := s.cache.Get(ctx, retryKey(phoneNumber), s.conf.OtpExpiry)
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	attempts, err := strconv.Atoi(retries)
	if err != nil {
		return false, fmt.Errorf("malformed retry counter for %s: %w", phoneNumber, err)
	}
	if attempts >= s.conf.MaxRetryTimes {
		if err := s.clear(ctx, phoneNumber); err != nil {
			return false, err
		}
		return false, nil
	}

	if submittedCode != code {
		if _, err := s.cache.Incr(ctx, retryKey(phoneNumber), s.conf.OtpExpiry); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.clear(ctx, phoneNumber); err != nil {
		return false, err
	}
	return true, nil
}

func (s *OtpService) clear(ctx context.Context, phoneNumber string) error {
	return s.cache.Delete(ctx, pinKey(phoneNumber), retryKey(phoneNumber))
}

func (s *OtpService) generateCode() (string, error) {
	if s.conf.DebugMode {
		return debugPinCode, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
