package analyzer

import "testing"

var benchStatements = []string{
	"SELECT * FROM tickets WHERE qr_code = 'QR-123'",
	"UPDATE tickets SET checked_in = 1 WHERE id = 42",
	"SELECT COUNT(*) FROM tickets t JOIN events e ON t.event_id = e.id GROUP BY e.id",
	"SELECT * FROM orders WHERE total > (SELECT AVG(total) FROM orders)",
}

func BenchmarkAnalyze(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Analyze(benchStatements[i%len(benchStatements)])
	}
}

func BenchmarkQueryID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		QueryID(benchStatements[i%len(benchStatements)])
	}
}

func BenchmarkFingerprint(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Fingerprint(benchStatements[i%len(benchStatements)])
	}
}
