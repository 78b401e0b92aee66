package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(raw []byte) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout, generation can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("Starting Chat & Ingestion API Smoke Test\n")

	sessionID := "smoke-test-session"
	userID := "smoke-test-user"

	// 1. Health check
	color.Yellow("\n[1] Health check")
	healthResp, err := http.Get("http://localhost:3000/health")
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	healthBody, _ := io.ReadAll(healthResp.Body)
	healthResp.Body.Close()
	color.Green("Status: %s", healthResp.Status)
	prettyPrint(healthBody)

	// 2. Synchronous chat invoke
	color.Yellow("\n[2] Chat invoke (sync)")
	resp, body, err := sendRequest("POST", "/chat/v1/invoke", map[string]interface{}{
		"user_question": "Chỉ số TBI là gì?",
		"user_id":       userID,
		"session_id":    sessionID,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 3. Streaming chat invoke
	color.Yellow("\n[3] Chat invoke (stream)")
	streamBody, _ := json.Marshal(map[string]interface{}{
		"user_question": "What is the Trading Behavior Index?",
		"user_id":       userID,
		"session_id":    sessionID,
		"stream":        true,
	})
	streamReq, _ := http.NewRequest("POST", baseURL+"/chat/v1/invoke", bytes.NewBuffer(streamBody))
	streamReq.Header.Set("Content-Type", "application/json")
	streamResp, err := http.DefaultClient.Do(streamReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", streamResp.Status)
	reader := bufio.NewReader(streamResp.Body)
	for {
		fragment := make([]byte, 256)
		n, readErr := reader.Read(fragment)
		if n > 0 {
			fmt.Print(string(fragment[:n]))
		}
		if readErr != nil {
			break
		}
	}
	streamResp.Body.Close()
	fmt.Println()

	// 4. Ingest documents
	color.Yellow("\n[4] Enqueue ingestion job")
	resp, body, err = sendRequest("POST", "/ingest/v1/documents", map[string]interface{}{
		"session_id":   sessionID,
		"document_ids": []string{"doc-0001", "doc-0002"},
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	var enqueue struct {
		Data struct {
			JobID string `json:"job_id"`
		} `json:"data"`
	}
	json.Unmarshal(body, &enqueue)

	// 5. Poll job status
	if enqueue.Data.JobID != "" {
		color.Yellow("\n[5] Poll ingestion job")
		resp, body, err = sendRequest("GET", "/ingest/v1/jobs/"+enqueue.Data.JobID, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)
		prettyPrint(body)
	}

	color.Cyan("\nSmoke test finished")
}
