package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	serverURL     = "http://localhost:8080"
	productID     = "loadtest-item"
	totalRequests = 50
)

type createOrderRequest struct {
	UserID      string      `json:"user_id"`
	Items       []orderItem `json:"items"`
	TotalAmount int64       `json:"total_amount"`
}

type orderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Fires concurrent order creations at a running server. With the product
// seeded at N units, exactly N single-unit orders should be accepted and the
// rest rejected with 409.
func main() {
	client := &http.Client{Timeout: 10 * time.Second}

	var created atomic.Int32
	var rejected atomic.Int32
	var failed atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			body, err := json.Marshal(createOrderRequest{
				UserID: fmt.Sprintf("user-%d", userID),
				Items: []orderItem{
					{ProductID: productID, Quantity: 1, UnitPrice: 500},
				},
				TotalAmount: 500,
			})
			if err != nil {
				log.Printf("marshal request: %v", err)
				failed.Add(1)
				return
			}

			resp, err := client.Post(serverURL+"/api/orders", "application/json", bytes.NewReader(body))
			if err != nil {
				failed.Add(1)
				return
			}
			resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Created:          %d\n", created.Load())
	fmt.Printf("Rejected (stock): %d\n", rejected.Load())
	fmt.Printf("Failed:           %d\n", failed.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("=======================================")
}
