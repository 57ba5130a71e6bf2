// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package report renders the result of a routecheck run.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/telekom/routecheck/internal/traceroute"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unsupported report format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format is the output format of a report.
type Format string

const (
	// Text prints one line per node: "<Kind>:<id>:replied|no reply".
	Text Format = "text"
	// JSON prints an indented JSON document with the destination, gateways and hops.
	JSON Format = "json"
	// YAML prints the same document as JSON in YAML.
	YAML Format = "yaml"
)

func (f Format) String() string {
	return string(f)
}

// IsValid reports whether the format is supported.
// The empty format is valid and means [Text].
func (f Format) IsValid() bool {
	return f == "" || slices.Contains([]Format{Text, JSON, YAML}, f)
}

const (
	statusReplied = "replied"
	statusNoReply = "no reply"
)

// Write renders the result in the given format.
func Write(w io.Writer, format Format, res *traceroute.Result) error {
	switch format {
	case Text, "":
		return writeText(w, res)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newDocument(res)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(res)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeText(w io.Writer, res *traceroute.Result) error {
	if _, err := fmt.Fprintf(w, "Destination:%s:%s\n", res.Destination.ID, status(res.Destination.Replied)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	for _, gw := range res.Gateways {
		if _, err := fmt.Fprintf(w, "Gateway:%s:%s\n", gw.ID, status(gw.Replied)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

func status(replied bool) string {
	if replied {
		return statusReplied
	}
	return statusNoReply
}

// document is the structured representation of a result.
type document struct {
	Destination node   `json:"destination" yaml:"destination"`
	Gateways    []node `json:"gateways" yaml:"gateways"`
	Hops        []hop  `json:"hops" yaml:"hops"`
}

type node struct {
	ID      string `json:"id" yaml:"id"`
	Address string `json:"address" yaml:"address"`
	Replied bool   `json:"replied" yaml:"replied"`
	// Hop is the first TTL the node replied at.
	Hop int `json:"hop,omitempty" yaml:"hop,omitempty"`
}

type hop struct {
	TTL     int    `json:"ttl" yaml:"ttl"`
	Address string `json:"address" yaml:"address"`
	Kind    string `json:"kind" yaml:"kind"`
	RTT     string `json:"rtt" yaml:"rtt"`
}

func newDocument(res *traceroute.Result) document {
	newNode := func(n traceroute.NetworkNode) node {
		nd := node{ID: n.ID, Address: n.Addr.String(), Replied: n.Replied}
		if n.Replied {
			nd.Hop = res.FirstHop(n.Addr)
		}
		return nd
	}

	doc := document{
		Destination: newNode(res.Destination),
		Gateways:    make([]node, 0, len(res.Gateways)),
		Hops:        make([]hop, 0, len(res.Hops)),
	}
	for _, gw := range res.Gateways {
		doc.Gateways = append(doc.Gateways, newNode(gw))
	}
	for _, h := range res.Hops {
		doc.Hops = append(doc.Hops, hop{
			TTL:     h.TTL,
			Address: h.Addr.String(),
			Kind:    h.Kind.String(),
			RTT:     h.RTT.String(),
		})
	}
	return doc
}
