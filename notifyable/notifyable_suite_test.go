package notifyable_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestNotifyable(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notifyable Suite")
}
