// Package storagetest provides an in-memory storage.Storage that records every
// call and can be told to fail.
package storagetest

import (
	"context"
	"errors"
	"sync"

	"catalog/models"
	"catalog/storage"
)

var _ storage.Storage = (*Recorder)(nil)

var ErrInjected = errors.New("injected storage failure")

type Recorder struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	deletes []string

	// FailPutAt makes the n-th Put call (1-based) fail. Zero disables it.
	FailPutAt int
	// FailDelete makes Delete fail for the listed keys.
	FailDelete map[string]bool
}

func NewRecorder() *Recorder {
	return &Recorder{objects: map[string][]byte{}, FailDelete: map[string]bool{}}
}

func (r *Recorder) Put(ctx context.Context, key string, data []byte, contentType string) (models.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.puts = append(r.puts, key)
	if r.FailPutAt > 0 && len(r.puts) == r.FailPutAt {
		return models.ImageAsset{}, ErrInjected
	}
	r.objects[key] = append([]byte(nil), data...)
	return models.ImageAsset{URL: "https://cdn.test/" + key, StorageKey: key}, nil
}

func (r *Recorder) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deletes = append(r.deletes, key)
	if r.FailDelete[key] {
		return ErrInjected
	}
	delete(r.objects, key)
	return nil
}

// Puts returns every key Put was called with, including failed calls.
func (r *Recorder) Puts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.puts...)
}

// Deletes returns every key Delete was called with.
func (r *Recorder) Deletes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deletes...)
}

func (r *Recorder) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[key]
	return ok
}

// Len is the number of objects currently stored.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// Calls is the total number of Put and Delete calls.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.puts) + len(r.deletes)
}
