package rpc_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/yahoo/clusterlib-go/rpc"
)

var _ = Describe("WithRespQueueKey", func() {
	It("injects the response queue key into an empty params list", func() {
		out, err := rpc.WithRespQueueKey(nil, "/a/_queues/resp1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))

		var decoded map[string]interface{}
		Expect(json.Unmarshal(out[0], &decoded)).To(Succeed())
		Expect(decoded["_respQueueKey"]).To(Equal("/a/_queues/resp1"))
	})

	It("merges the key into an existing params[0] object without losing other fields", func() {
		params := []json.RawMessage{json.RawMessage(`{"x":1}`)}
		out, err := rpc.WithRespQueueKey(params, "/resp1")
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]interface{}
		Expect(json.Unmarshal(out[0], &decoded)).To(Succeed())
		Expect(decoded["x"]).To(Equal(1.0))
		Expect(decoded["_respQueueKey"]).To(Equal("/resp1"))
	})

	It("rejects a params[0] that isn't a JSON object", func() {
		params := []json.RawMessage{json.RawMessage(`42`)}
		_, err := rpc.WithRespQueueKey(params, "/resp1")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Response", func() {
	It("reports HasError false for an empty or null error field", func() {
		r := &rpc.Response{ID: "1"}
		Expect(r.HasError()).To(BeFalse())

		r2 := &rpc.Response{ID: "1", Error: json.RawMessage(`null`)}
		Expect(r2.HasError()).To(BeFalse())
	})

	It("reports HasError true for a non-null error field", func() {
		r := &rpc.Response{ID: "1", Error: json.RawMessage(`"boom"`)}
		Expect(r.HasError()).To(BeTrue())
	})

	It("returns the result only for a result response", func() {
		r := &rpc.Response{ID: "1", Result: json.RawMessage(`{"ok":true}`)}
		result, err := r.GetResponseResult()
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(MatchJSON(`{"ok":true}`))

		_, err = r.GetResponseError()
		Expect(err).To(HaveOccurred())
	})

	It("returns the error only for an error response", func() {
		r := &rpc.Response{ID: "1", Error: json.RawMessage(`"boom"`)}
		errMsg, err := r.GetResponseError()
		Expect(err).NotTo(HaveOccurred())
		Expect(errMsg).To(MatchJSON(`"boom"`))

		_, err = r.GetResponseResult()
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CompletedEnvelope", func() {
	It("round-trips through JSON as a 3-element array", func() {
		original := rpc.CompletedEnvelope{
			Result:     json.RawMessage(`{"n":1}`),
			EpochMsecs: 1700000000000,
			HumanStamp: "2023-11-14T22:13:20Z",
		}

		encoded, err := json.Marshal(original)
		Expect(err).NotTo(HaveOccurred())

		var decoded rpc.CompletedEnvelope
		Expect(json.Unmarshal(encoded, &decoded)).To(Succeed())

		Expect(decoded.Result).To(MatchJSON(`{"n":1}`))
		Expect(decoded.EpochMsecs).To(Equal(int64(1700000000000)))
		Expect(decoded.HumanStamp).To(Equal("2023-11-14T22:13:20Z"))
	})

	It("rejects a malformed (non-array) envelope", func() {
		var decoded rpc.CompletedEnvelope
		err := decoded.UnmarshalJSON([]byte(`{"not":"an array"}`))
		Expect(err).To(HaveOccurred())
	})
})
