package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var maxSessions int = 500
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var healthClient healthpb.HealthClient

var sensors = []string{"sensor1", "sensor2", "sensor3", "sensor4"}
var timeframes = []string{"day", "week", "month"}

var rndMu sync.Mutex
var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

type sessionView struct {
	ID string `json:"id"`
}

func main() {
	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	healthClient = healthpb.NewHealthClient(conn)

	fmt.Printf("gRPC client connected\n")

	var startTime time.Time
	var usedTime time.Duration

	sessionIDs := make([]string, maxSessions)

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxSessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessionIDs[i] = openSession()
			fmt.Printf("\ropened session %v", i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\ropened %v sessions: used time=%v seconds, throughput=%v action/second\n",
		maxSessions, usedTime.Seconds(), float64(maxSessions)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxSessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doAction(sessionIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rdid actions for %v sessions: used time=%v seconds, throughput=%v action/second\n",
		maxSessions, usedTime.Seconds(), float64(maxSessions*4)/usedTime.Seconds(),
	)

	for _, id := range sessionIDs {
		closeSession(id)
	}
}

func pick(items []string) string {
	rndMu.Lock()
	defer rndMu.Unlock()
	return items[rnd.Intn(len(items))]
}

func pause() {
	rndMu.Lock()
	d := time.Duration(100+rnd.Int31n(1000)) * time.Millisecond
	rndMu.Unlock()
	time.Sleep(d)
}

func openSession() string {
	resp, err := http.Post(fmt.Sprintf("http://%s/sessions", httpHostPort), "application/json", nil)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		panic(fmt.Sprintf("open session: status %v", resp.StatusCode))
	}

	var view sessionView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		panic(err)
	}
	return view.ID
}

func closeSession(sessionID string) {
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("http://%s/sessions/%s", httpHostPort, sessionID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	resp.Body.Close()
}

func postJSON(path string, payload map[string]string) {
	jsonData, _ := json.Marshal(payload)
	resp, err := http.Post(fmt.Sprintf("http://%s%s", httpHostPort, path), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusTooManyRequests {
		fmt.Printf("\nresponse status code %v for %s\n", resp.StatusCode, path)
	}
}

func doAction(sessionID string) {
	actions := map[string]func(){
		"SelectSensor": func() {
			postJSON("/sessions/"+sessionID+"/sensor", map[string]string{"sensor": pick(sensors)})
		},
		"SetTimeframe": func() {
			postJSON("/sessions/"+sessionID+"/timeframe", map[string]string{"timeframe": pick(timeframes)})
		},
		"Trigger": func() {
			postJSON("/sessions/"+sessionID+"/trigger", nil)
		},
		"HealthCheck": func() {
			_, err := healthClient.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "garden.repository"})
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
			}
		},
	}
	// map iteration order shuffles the actions
	for name, action := range actions {
		action()
		fmt.Printf("\rexecuted action %v for session %v", name, sessionID)
		pause()
	}
}
