package storage

import "testing"

func TestReturnMediaPath(t *testing.T) {
	path, err := ReturnMediaPath("order-1", "req-9", 0, "tear.jpg")
	if err != nil {
		t.Fatalf("ReturnMediaPath: %v", err)
	}
	if path != "returns/order-1/req-9/01_tear.jpg" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestReturnMediaPathRejectsTraversal(t *testing.T) {
	cases := []struct {
		name      string
		orderID   string
		requestID string
		fileName  string
	}{
		{name: "empty order", orderID: "", requestID: "req-1", fileName: "a.jpg"},
		{name: "slash in order", orderID: "a/b", requestID: "req-1", fileName: "a.jpg"},
		{name: "dotdot in request", orderID: "order-1", requestID: "..", fileName: "a.jpg"},
		{name: "empty file", orderID: "order-1", requestID: "req-1", fileName: " "},
		{name: "backslash in file", orderID: "order-1", requestID: "req-1", fileName: "a\\b.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReturnMediaPath(tc.orderID, tc.requestID, 0, tc.fileName); err == nil {
				t.Fatalf("expected error for %+v", tc)
			}
		})
	}
}
