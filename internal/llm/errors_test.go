package llm

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		f    *Failure
		want FailureClass
	}{
		{"nil failure", nil, ClassFatal},
		{"timeout code", &Failure{Message: "context deadline exceeded", Code: CodeTimeout}, ClassRetryable},
		{"model not found", &Failure{Message: "The model `gpt-9` does not exist"}, ClassModelRejected},
		{"not found phrasing", &Failure{Message: "model not found"}, ClassModelRejected},
		{"unsupported version", &Failure{Message: "unsupported API version"}, ClassModelRejected},
		{"invalid argument", &Failure{Message: "INVALID_ARGUMENT: max_tokens too large"}, ClassModelRejected},
		{"permission", &Failure{Message: "permission denied for project"}, ClassModelRejected},
		{"quota", &Failure{Message: "You exceeded your current quota"}, ClassModelRejected},
		{"http 429", &Failure{Message: "status 429 Too Many Requests"}, ClassModelRejected},
		{"connection refused", &Failure{Message: "dial tcp 127.0.0.1:1234: connection refused"}, ClassRetryable},
		{"deadline in message", &Failure{Message: "context deadline exceeded"}, ClassRetryable},
		{"bad gateway", &Failure{Message: "status 502 Bad Gateway"}, ClassRetryable},
		{"content policy", &Failure{Message: "response flagged by safety system"}, ClassFatal},
		{"garbage", &Failure{Message: "internal bookkeeping exploded"}, ClassFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.f); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.f, got, tc.want)
			}
		})
	}
}

func TestFailureClassString(t *testing.T) {
	if ClassRetryable.String() != "retryable" || ClassModelRejected.String() != "model-rejected" || ClassFatal.String() != "fatal" {
		t.Fatalf("unexpected class labels: %v %v %v", ClassRetryable, ClassModelRejected, ClassFatal)
	}
}
