package payment

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
)

// SandboxGatewayName is the registry name of the sandbox gateway
const SandboxGatewayName = "sandbox"

// SandboxGateway simulates a payment provider for development and tests
type SandboxGateway struct {
	mu             sync.Mutex
	rng            *rand.Rand
	failureRate    float64       // share of payments that fail
	timeoutRate    float64       // share of payments that time out
	processingTime time.Duration // simulated provider latency
	deferred       bool          // leave payments pending for a later callback
	returnURL      string
}

// NewSandboxGateway creates a sandbox gateway that settles immediately
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		failureRate:    0.15,
		timeoutRate:    0.05,
		processingTime: 200 * time.Millisecond,
	}
}

// Name returns the gateway name
func (sg *SandboxGateway) Name() string { return SandboxGatewayName }

// CreatePayment simulates a provider answering a payment request
func (sg *SandboxGateway) CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	log.Printf("Sandbox payment for %s, amount: %.2f", req.Reference, req.Amount)

	resp := &models.PaymentResponse{
		Gateway:   SandboxGatewayName,
		Reference: req.Reference,
		Amount:    req.Amount,
	}

	if req.Amount <= 0 {
		resp.Status = models.PaymentStatusFailed
		resp.Message = "Invalid amount"
		resp.ProcessedAt = time.Now()
		return resp, nil
	}

	sg.mu.Lock()
	processingTime := sg.processingTime
	if processingTime > 0 {
		processingTime += time.Duration(sg.rng.Intn(int(processingTime/time.Millisecond)+1)) * time.Millisecond
	}
	sg.mu.Unlock()

	select {
	case <-ctx.Done():
		resp.Status = models.PaymentStatusTimeout
		resp.Message = "Payment processing timeout"
		resp.ProcessedAt = time.Now()
		return resp, nil
	case <-time.After(processingTime):
	}

	sg.mu.Lock()
	randomValue := sg.rng.Float64()
	failureMessage := failureMessages[sg.rng.Intn(len(failureMessages))]
	timeoutRate, failureRate, deferred, returnURL := sg.timeoutRate, sg.failureRate, sg.deferred, sg.returnURL
	sg.mu.Unlock()

	switch {
	case randomValue < timeoutRate:
		resp.Status = models.PaymentStatusTimeout
		resp.Message = "Payment gateway timeout"
	case randomValue < timeoutRate+failureRate:
		resp.Status = models.PaymentStatusFailed
		resp.Message = failureMessage
	case deferred:
		resp.PaymentID = uuid.New().String()
		resp.Status = models.PaymentStatusPending
		resp.Message = "Awaiting payment confirmation"
		if returnURL != "" {
			resp.RedirectURL = returnURL + "?hold_id=" + req.Reference
		}
	default:
		resp.PaymentID = uuid.New().String()
		resp.Status = models.PaymentStatusSuccess
		resp.Message = "Payment processed successfully"
	}
	resp.ProcessedAt = time.Now()

	log.Printf("Sandbox payment for %s: %s - %s", req.Reference, resp.Status, resp.Message)
	return resp, nil
}

var failureMessages = []string{
	"Insufficient funds",
	"Card declined",
	"Invalid card number",
	"Expired card",
	"CVV mismatch",
	"Bank declined transaction",
	"Fraud detection alert",
	"Daily limit exceeded",
}

// SetFailureRate sets the failure rate
func (sg *SandboxGateway) SetFailureRate(rate float64) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	if rate >= 0 && rate <= 1 {
		sg.failureRate = rate
	}
}

// SetTimeoutRate sets the timeout rate
func (sg *SandboxGateway) SetTimeoutRate(rate float64) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	if rate >= 0 && rate <= 1 {
		sg.timeoutRate = rate
	}
}

// SetProcessingTime sets the simulated latency
func (sg *SandboxGateway) SetProcessingTime(d time.Duration) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.processingTime = d
}

// SetDeferred makes successful payments stay pending until completed
// through the sandbox callback, with returnURL as the redirect target
func (sg *SandboxGateway) SetDeferred(deferred bool, returnURL string) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.deferred = deferred
	sg.returnURL = returnURL
}
