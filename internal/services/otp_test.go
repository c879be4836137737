package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"planora-ticketing/internal/models"
)

type MockOTPSender struct {
	mock.Mock
}

func (m *MockOTPSender) SendOTP(ctx context.Context, email, code string, minutes int) error {
	args := m.Called(ctx, email, code, minutes)
	return args.Error(0)
}

func TestRedisOTPStore_Save(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	store := NewRedisOTPStore(client)

	rmock.ExpectSet("otp:code:a@b.com", "123456", 10*time.Minute).SetVal("OK")
	rmock.ExpectDel("otp:attempts:a@b.com").SetVal(0)

	require.NoError(t, store.Save(context.Background(), "a@b.com", "123456", 10*time.Minute))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRedisOTPStore_Consume(t *testing.T) {
	t.Run("correct code is single use", func(t *testing.T) {
		client, rmock := redismock.NewClientMock()
		store := NewRedisOTPStore(client)

		rmock.ExpectGet("otp:code:a@b.com").SetVal("123456")
		rmock.ExpectDel("otp:code:a@b.com").SetVal(1)
		require.NoError(t, store.Consume(context.Background(), "a@b.com", "123456"))

		rmock.ExpectGet("otp:code:a@b.com").RedisNil()
		assert.ErrorIs(t, store.Consume(context.Background(), "a@b.com", "123456"), models.ErrInvalidOTP)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})

	t.Run("concurrent winner takes the code", func(t *testing.T) {
		client, rmock := redismock.NewClientMock()
		store := NewRedisOTPStore(client)

		rmock.ExpectGet("otp:code:a@b.com").SetVal("123456")
		rmock.ExpectDel("otp:code:a@b.com").SetVal(0)
		assert.ErrorIs(t, store.Consume(context.Background(), "a@b.com", "123456"), models.ErrInvalidOTP)
	})

	t.Run("wrong code counts attempts", func(t *testing.T) {
		client, rmock := redismock.NewClientMock()
		store := NewRedisOTPStore(client)

		rmock.ExpectGet("otp:code:a@b.com").SetVal("123456")
		rmock.ExpectIncr("otp:attempts:a@b.com").SetVal(1)
		rmock.ExpectExpire("otp:attempts:a@b.com", 10*time.Minute).SetVal(true)
		assert.ErrorIs(t, store.Consume(context.Background(), "a@b.com", "000000"), models.ErrInvalidOTP)

		rmock.ExpectGet("otp:code:a@b.com").SetVal("123456")
		rmock.ExpectIncr("otp:attempts:a@b.com").SetVal(5)
		rmock.ExpectDel("otp:code:a@b.com").SetVal(1)
		assert.ErrorIs(t, store.Consume(context.Background(), "a@b.com", "000000"), models.ErrInvalidOTP)
		assert.NoError(t, rmock.ExpectationsWereMet())
	})
}

func TestOTPService_RequestAndVerify(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	rmock.MatchExpectationsInOrder(true)
	sender := &MockOTPSender{}
	service := NewOTPService(NewRedisOTPStore(client), sender, "otp-secret", 10*time.Minute, 10*time.Minute, testLogger())

	var code string
	sender.On("SendOTP", mock.Anything, "a@b.com", mock.AnythingOfType("string"), 10).
		Run(func(args mock.Arguments) { code = args.String(2) }).
		Return(nil)
	rmock.Regexp().ExpectSet("otp:code:a@b.com", `^[1-9]\d{5}$`, 10*time.Minute).SetVal("OK")
	rmock.ExpectDel("otp:attempts:a@b.com").SetVal(0)

	require.NoError(t, service.Request(context.Background(), &models.OTPRequest{Email: " A@B.com"}))
	require.Len(t, code, 6)

	rmock.ExpectGet("otp:code:a@b.com").SetVal(code)
	rmock.ExpectDel("otp:code:a@b.com").SetVal(1)

	token, err := service.Verify(context.Background(), &models.OTPVerifyRequest{Email: "a@b.com", Code: code})
	require.NoError(t, err)

	email, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
	assert.NoError(t, service.Authorize(token, "A@b.com"))
	assert.ErrorIs(t, service.Authorize(token, "other@b.com"), models.ErrForbidden)

	assert.NoError(t, rmock.ExpectationsWereMet())
	sender.AssertExpectations(t)
}

func TestOTPService_RequestValidatesAndReportsSendFailure(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	sender := &MockOTPSender{}
	service := NewOTPService(NewRedisOTPStore(client), sender, "otp-secret", 10*time.Minute, 10*time.Minute, testLogger())

	err := service.Request(context.Background(), &models.OTPRequest{Email: "nope"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	rmock.Regexp().ExpectSet("otp:code:a@b.com", `^\d{6}$`, 10*time.Minute).SetVal("OK")
	rmock.ExpectDel("otp:attempts:a@b.com").SetVal(0)
	sender.On("SendOTP", mock.Anything, "a@b.com", mock.Anything, 10).Return(errors.New("smtp down"))

	assert.Error(t, service.Request(context.Background(), &models.OTPRequest{Email: "a@b.com"}))
}

func TestOTPService_ParseToken(t *testing.T) {
	service := NewOTPService(nil, nil, "otp-secret", 10*time.Minute, 10*time.Minute, testLogger())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	token, err := service.IssueToken("a@b.com")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = service.ParseToken(token)
	assert.ErrorIs(t, err, models.ErrOTPExpired)

	other := NewOTPService(nil, nil, "different-secret", 10*time.Minute, 10*time.Minute, testLogger())
	other.now = service.now
	now = now.Add(-11 * time.Minute)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = service.ParseToken("")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = service.ParseToken("not.a.token")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^[1-9]\d{5}$`, code)
	}
}
