// Command keygen generates an API key and its bcrypt hash. The plain key is
// handed to clients; the hash goes into the SCHEDQ_AUTH_API_KEY_HASH setting.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

const keyBytes = 24

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	raw := make([]byte, keyBytes)
	if _, err := rand.Read(raw); err != nil {
		log.Fatalf("failed to generate random key: %v", err)
	}
	key := "sq_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), *cost)
	if err != nil {
		log.Fatalf("failed to hash key: %v", err)
	}

	fmt.Printf("API key:  %s\n", key)
	fmt.Printf("Key hash: %s\n", string(hash))
}
