package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

var (
	url     = flag.String("url", "http://localhost:8080/api/addresses", "URL that must answer with 200 OK")
	timeout = flag.Duration("timeout", 5*time.Minute, "give up after this long")
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080/api/addresses -timeout=2m
func main() {
	flag.Parse()
	totalWaitTime := 0
	deadline := time.Now().Add(*timeout)
	for {
		res, err := http.Get(*url)
		if err == nil {
			res.Body.Close()
			fmt.Println(res.Status)
			if res.StatusCode == http.StatusOK {
				break
			}
		} else {
			fmt.Println(err)
		}
		if time.Now().After(deadline) {
			fmt.Println("service did not become available in time")
			os.Exit(1)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
