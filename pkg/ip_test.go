package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPIsLocal(t *testing.T) {
	testCases := []struct {
		addr            string
		expectedIsLocal bool
	}{
		{addr: "127.0.0.1:51242", expectedIsLocal: true},
		{addr: "172.17.0.1:39288", expectedIsLocal: true},
		{addr: "172.250.0.1:39288", expectedIsLocal: true},
		{addr: "192.168.0.14:1234", expectedIsLocal: false},
		{addr: "89.12.222.4:51242", expectedIsLocal: false},
		{addr: "", expectedIsLocal: false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expectedIsLocal, IPIsLocal(tc.addr))
	}
}

func TestReadUserIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("X-Real-Ip", "89.12.222.4")
	ip, err := ReadUserIP(req)
	require.NoError(t, err)
	assert.Equal(t, "89.12.222.4", ip)

	req = httptest.NewRequest("GET", "/dashboard", nil)
	req.RemoteAddr = "127.0.0.1:51242"
	ip, err = ReadUserIP(req)
	require.NoError(t, err)
	assert.Equal(t, "localhost", ip)

	req = httptest.NewRequest("GET", "/dashboard", nil)
	req.RemoteAddr = "not-an-ip"
	_, err = ReadUserIP(req)
	assert.Error(t, err)
}
