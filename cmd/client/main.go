package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/address-book-service/pkg/model"
)

var (
	baseURL = flag.String("url", "http://localhost:8080/api/addresses", "base URL of the address API")
	sizes   = flag.String("sizes", "1000,5000,10000,50000,100000", "comma separated numbers of addresses per round")
	timeout = flag.Duration("timeout", 10*time.Second, "timeout of a single request")
)

// sample is the address that is created and updated in every round.
var sample = model.Address{
	Name:    "Marcus Antonius",
	Phone:   "+39 999 777 555",
	Email:   "marcus@senatus.it",
	Street:  "Via Sacra 1",
	City:    "Roma",
	State:   "Lazio",
	ZipCode: "00186",
	Country: "IT",
}

// benchmark sends requests to the address API and measures how long they take.
type benchmark struct {
	client  *http.Client
	baseURL string
	body    []byte
}

// Usage example on the command line:
// > go run main.go
// > go run main.go -url=http://localhost:9090/api/addresses -sizes=100,1000
func main() {
	flag.Parse()
	rounds, err := parseSizes(*sizes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	body, err := json.Marshal(sample)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	b := &benchmark{client: &http.Client{Timeout: *timeout}, baseURL: strings.TrimSuffix(*baseURL, "/"), body: body}

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE   (average µs per request)")
	fmt.Println("---------------------------------------------------")
	for _, n := range rounds {
		if err := b.round(n); err != nil {
			fmt.Println()
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// round creates n addresses, then updates, reads and deletes each of them in random order. It
// prints the average duration of each operation in microseconds.
func (b *benchmark) round(n int) error {
	fmt.Printf("%10d", n)
	ids := make([]int64, 0, n)
	var total time.Duration
	for i := 0; i < n; i++ {
		id, d, err := b.create()
		if err != nil {
			return err
		}
		ids = append(ids, id)
		total += d
	}
	fmt.Printf("%10d", total.Microseconds()/int64(n))

	for _, op := range []struct {
		method string
		body   []byte
		status int
	}{
		{http.MethodPut, b.body, http.StatusOK},
		{http.MethodGet, nil, http.StatusOK},
		{http.MethodDelete, nil, http.StatusNoContent},
	} {
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		total = 0
		for _, id := range ids {
			_, d, err := b.send(op.method, b.baseURL+"/"+strconv.FormatInt(id, 10), op.body, op.status)
			if err != nil {
				return err
			}
			total += d
		}
		fmt.Printf("%10d", total.Microseconds()/int64(n))
	}
	fmt.Println()
	return nil
}

// create posts the sample address and returns the id assigned by the service.
func (b *benchmark) create() (int64, time.Duration, error) {
	resBody, d, err := b.send(http.MethodPost, b.baseURL, b.body, http.StatusCreated)
	if err != nil {
		return 0, d, err
	}
	var created model.Address
	if err := json.Unmarshal(resBody, &created); err != nil {
		return 0, d, fmt.Errorf("could not unmarshal created address: %w", err)
	}
	return created.Id, d, nil
}

// send executes a single request and fails unless the service answers with the wanted status.
func (b *benchmark) send(method string, url string, body []byte, want int) ([]byte, time.Duration, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("could not create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	res, err := b.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	d := time.Since(start)
	if err != nil {
		return nil, d, fmt.Errorf("could not read response body: %w", err)
	}
	if res.StatusCode != want {
		return nil, d, fmt.Errorf("%s %s: got %s, want %d", method, url, res.Status, want)
	}
	return resBody, d, nil
}

func parseSizes(s string) ([]int, error) {
	var rounds []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid size %q", field)
		}
		rounds = append(rounds, n)
	}
	return rounds, nil
}
