// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package functions

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockEventSink is a mock of EventSink interface.
type MockEventSink struct {
	ctrl     *gomock.Controller
	recorder *MockEventSinkMockRecorder
}

// MockEventSinkMockRecorder is the mock recorder for MockEventSink.
type MockEventSinkMockRecorder struct {
	mock *MockEventSink
}

// NewMockEventSink creates a new mock instance.
func NewMockEventSink(ctrl *gomock.Controller) *MockEventSink {
	mock := &MockEventSink{ctrl: ctrl}
	mock.recorder = &MockEventSinkMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEventSink) EXPECT() *MockEventSinkMockRecorder {
	return m.recorder
}

// NotifyRestFunction mocks base method.
func (m *MockEventSink) NotifyRestFunction(call RestCall) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NotifyRestFunction", call)
	ret0, _ := ret[0].(error)
	return ret0
}

// NotifyRestFunction indicates an expected call of NotifyRestFunction.
func (mr *MockEventSinkMockRecorder) NotifyRestFunction(call any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NotifyRestFunction", reflect.TypeOf((*MockEventSink)(nil).NotifyRestFunction), call)
}
