// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"github.com/poiesic/sitebot/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalChatbot serializes a Chatbot to bytes.
func MarshalChatbot(bot *core.Chatbot) []byte {
	buf := make([]byte, core.ChatbotMUS.Size(*bot))
	core.ChatbotMUS.Marshal(*bot, buf)
	return buf
}

// UnmarshalChatbot deserializes a Chatbot from bytes.
func UnmarshalChatbot(data []byte) (*core.Chatbot, error) {
	bot, _, err := core.ChatbotMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// MarshalUser serializes a User to bytes.
func MarshalUser(user *core.User) []byte {
	buf := make([]byte, core.UserMUS.Size(*user))
	core.UserMUS.Marshal(*user, buf)
	return buf
}

// UnmarshalUser deserializes a User from bytes.
func UnmarshalUser(data []byte) (*core.User, error) {
	user, _, err := core.UserMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MarshalRunHistory serializes a RunHistory to bytes.
func MarshalRunHistory(run *core.RunHistory) []byte {
	buf := make([]byte, core.RunHistoryMUS.Size(*run))
	core.RunHistoryMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalRunHistory deserializes a RunHistory from bytes.
func UnmarshalRunHistory(data []byte) (*core.RunHistory, error) {
	run, _, err := core.RunHistoryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	buf := make([]byte, core.EmbeddingRecordMUS.Size(*record))
	core.EmbeddingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record, _, err := core.EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalDeletionRequest serializes a DeletionRequest to bytes.
func MarshalDeletionRequest(req *core.DeletionRequest) []byte {
	buf := make([]byte, core.DeletionRequestMUS.Size(*req))
	core.DeletionRequestMUS.Marshal(*req, buf)
	return buf
}

// UnmarshalDeletionRequest deserializes a DeletionRequest from bytes.
func UnmarshalDeletionRequest(data []byte) (*core.DeletionRequest, error) {
	req, _, err := core.DeletionRequestMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
