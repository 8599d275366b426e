// cmd/payment-service/main.go
package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/order/domain"
	"bazaar/internal/service/order/domain/port"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
)

const serviceName = "payment-service"

// 本地联调用的支付存根：签发假的结账会话，
// 并提供一个模拟入口把 payment.succeeded 事件发到 Kafka，
// 以便端到端演练订单服务的结算路径。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
	eventWriter := mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.PaymentEventsTopic)
	defer eventWriter.Close()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("POST /create_payment_session", handleCreateSession)
			appCtx.Mux.HandleFunc("POST /simulate_payment_succeeded", simulatePaymentSucceeded(eventWriter))
		},
	})
}

func handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID  string                    `json:"orderId"`
		Currency string                    `json:"currency"`
		Items    []port.PaymentSessionItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" || len(req.Items) == 0 {
		http.Error(w, "orderId and items are required", http.StatusBadRequest)
		return
	}

	sessionID := "cs_" + uuid.New().String()
	session := port.PaymentSession{
		ID:  sessionID,
		URL: "https://checkout.example.com/pay/" + sessionID,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

// simulatePaymentSucceeded 模拟支付提供商的收款回调：发出结算事件。
func simulatePaymentSucceeded(writer *kafka.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event domain.PaymentSucceededEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if event.OrderID == "" {
			http.Error(w, "orderId is required", http.StatusBadRequest)
			return
		}
		if event.StripePaymentID == "" {
			event.StripePaymentID = "ch_" + uuid.New().String()
		}
		if event.ReceiptURL == "" {
			event.ReceiptURL = "https://receipts.example.com/" + event.OrderID
		}

		payload, err := json.Marshal(event)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// 以订单ID作为分区键，同一订单的事件保持有序
		if err := mq.ProduceMessage(r.Context(), writer, []byte(event.OrderID), payload); err != nil {
			logger.Ctx(r.Context()).Error().Err(err).Msg("failed to publish payment event")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "event published"})
	}
}
