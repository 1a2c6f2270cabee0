package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/sitebot/core"
)

// Key prefixes for different data types
const (
	chatbotPrefix    = "bot"
	chatbotIDSeq     = "botseq"
	userPrefix       = "usr"
	userIDSeq        = "usrseq"
	runPrefix        = "run"
	runIDSeq         = "runseq"
	runChatbotPrefix = "runbot"
	embeddingPrefix  = "emb"
	deletionPrefix   = "del"
	deletionIDSeq    = "delseq"
)

// makeChatbotKey generates a key for a chatbot by ID.
func makeChatbotKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chatbotPrefix, id))
}

// makeUserKey generates a key for a user by ID.
func makeUserKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", userPrefix, id))
}

// makeRunKey generates a key for a run history row by ID.
func makeRunKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", runPrefix, id))
}

// makeDeletionKey generates a key for a deletion request by ID.
func makeDeletionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", deletionPrefix, id))
}

// makeRunChatbotKey generates a composite key for the run-by-chatbot index.
// Format: prefix:chatbotID:runID, BigEndian so lexicographic sort works.
func makeRunChatbotKey(chatbotID, runID core.ID) []byte {
	prefix := runChatbotPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(chatbotID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(runID))
	return buf
}

// makePartialRunChatbotKey generates a partial key for per-chatbot run scans.
func makePartialRunChatbotKey(chatbotID core.ID) []byte {
	prefix := runChatbotPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(chatbotID))
	return buf
}

// makeEmbeddingKey generates a composite key for an embedding record.
// Format: prefix:chatbotID:generation:recordID, all BigEndian so that a
// per-chatbot scan visits generations oldest first.
func makeEmbeddingKey(chatbotID core.ID, generation int64, id core.ID) []byte {
	prefix := embeddingPrefix + ":"
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(chatbotID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(generation))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialEmbeddingKey generates a partial key for per-chatbot embedding scans.
func makePartialEmbeddingKey(chatbotID core.ID) []byte {
	prefix := embeddingPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(chatbotID))
	return buf
}

// embeddingKeyGeneration extracts the generation from an embedding key.
// Returns false if the key is too short to be an embedding key.
func embeddingKeyGeneration(key []byte) (int64, bool) {
	prefixLen := len(embeddingPrefix) + 1 + 8
	if len(key) < prefixLen+8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(key[prefixLen:])), true
}
