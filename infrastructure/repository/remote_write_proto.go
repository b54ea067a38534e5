package repository

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
)

// gaugeSample is one time series with a single sample
type gaugeSample struct {
	Name   string
	Value  float64
	Labels map[string]string
}

// encodeWriteRequest encodes a prometheus.WriteRequest with one time series per sample.
// Labels are written in name order as the remote write protocol requires.
func encodeWriteRequest(samples []gaugeSample, timestamp int64) []byte {
	var buf bytes.Buffer

	for _, s := range samples {
		allLabels := make(map[string]string, len(s.Labels)+1)
		for k, v := range s.Labels {
			allLabels[k] = v
		}
		allLabels["__name__"] = s.Name

		// Field 1: timeseries (repeated)
		writeFieldWithData(&buf, 1, 2, encodeTimeSeries(allLabels, s.Value, timestamp))
	}

	return buf.Bytes()
}

// encodeTimeSeries encodes a single TimeSeries
func encodeTimeSeries(labels map[string]string, value float64, timestamp int64) []byte {
	var buf bytes.Buffer

	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	// Field 1: labels (repeated)
	for _, name := range names {
		writeFieldWithData(&buf, 1, 2, encodeLabel(name, labels[name]))
	}

	// Field 2: samples (repeated)
	writeFieldWithData(&buf, 2, 2, encodeSample(value, timestamp))

	return buf.Bytes()
}

// encodeLabel encodes a single Label
func encodeLabel(name, value string) []byte {
	var buf bytes.Buffer
	writeString(&buf, 1, name)
	writeString(&buf, 2, value)
	return buf.Bytes()
}

// encodeSample encodes a single Sample
func encodeSample(value float64, timestamp int64) []byte {
	var buf bytes.Buffer

	// Field 1: value (double/fixed64)
	writeFixed64(&buf, 1, math.Float64bits(value))

	// Field 2: timestamp (int64/varint)
	writeVarint(&buf, 2, timestamp)

	return buf.Bytes()
}

// writeFieldWithData writes a field number and wire type followed by length-delimited data
func writeFieldWithData(buf *bytes.Buffer, fieldNum int, wireType int, data []byte) {
	key := (fieldNum << 3) | wireType
	writeRawVarint(buf, uint64(key))
	writeRawVarint(buf, uint64(len(data)))
	buf.Write(data)
}

// writeString writes a string field
func writeString(buf *bytes.Buffer, fieldNum int, s string) {
	key := (fieldNum << 3) | 2
	writeRawVarint(buf, uint64(key))
	writeRawVarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

// writeFixed64 writes a fixed64 field
func writeFixed64(buf *bytes.Buffer, fieldNum int, v uint64) {
	key := (fieldNum << 3) | 1
	writeRawVarint(buf, uint64(key))
	_ = binary.Write(buf, binary.LittleEndian, v)
}

// writeVarint writes a varint field
func writeVarint(buf *bytes.Buffer, fieldNum int, v int64) {
	writeRawVarint(buf, uint64(fieldNum<<3))
	writeRawVarint(buf, uint64(v))
}

func writeRawVarint(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}
