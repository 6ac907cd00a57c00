// Package checkpoint persists learned value-function parameters to
// disk so that training runs can resume or replay a learned policy.
// Snapshots are opaque gob files; a missing snapshot is expected and
// callers fall back to fresh parameters.
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Table is a snapshot of a learned Q-table
type Table struct {
	Dims   []int
	Values []float64
}

// Network is a snapshot of learned network weights, one slice per
// learnable tensor in construction order
type Network struct {
	Weights [][]float64
}

// Exists returns whether a snapshot is present at filename
func Exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// SaveTable saves a Q-table snapshot to filename
func SaveTable(filename string, snapshot *Table) error {
	return save(filename, snapshot)
}

// LoadTable loads a Q-table snapshot from filename
func LoadTable(filename string) (*Table, error) {
	var snapshot Table
	if err := load(filename, &snapshot); err != nil {
		return nil, fmt.Errorf("loadtable: %v", err)
	}
	return &snapshot, nil
}

// SaveNetwork saves a network weight snapshot to filename
func SaveNetwork(filename string, snapshot *Network) error {
	return save(filename, snapshot)
}

// LoadNetwork loads a network weight snapshot from filename
func LoadNetwork(filename string) (*Network, error) {
	var snapshot Network
	if err := load(filename, &snapshot); err != nil {
		return nil, fmt.Errorf("loadnetwork: %v", err)
	}
	return &snapshot, nil
}

func save(filename string, snapshot interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(snapshot); err != nil {
		return fmt.Errorf("save: could not encode snapshot: %v", err)
	}
	return nil
}

func load(filename string, snapshot interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	if err := dec.Decode(snapshot); err != nil {
		return fmt.Errorf("could not decode snapshot: %v", err)
	}
	return nil
}
