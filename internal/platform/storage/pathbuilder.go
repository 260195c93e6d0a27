package storage

import (
	"fmt"
	"strings"
)

// ReturnMediaPath composes the object key for a return-request attachment.
// Files are grouped per order and request, with a sequence prefix preserving
// upload order: returns/{orderID}/{requestID}/{nn}_{fileName}.
func ReturnMediaPath(orderID, requestID string, index int, fileName string) (string, error) {
	orderID, err := validateSegment("orderID", orderID)
	if err != nil {
		return "", err
	}
	requestID, err = validateSegment("requestID", requestID)
	if err != nil {
		return "", err
	}
	if index < 0 {
		return "", fmt.Errorf("storage: index must not be negative")
	}
	fileName, err = validateFileName(fileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("returns/%s/%s/%02d_%s", orderID, requestID, index+1, fileName), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}
