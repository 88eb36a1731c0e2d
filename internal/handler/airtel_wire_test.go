package handler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlatXML(t *testing.T) {
	body := []byte(`
		<COMMAND>
			<TYPE>C2B</TYPE>
			<REFERENCE1>TX1</REFERENCE1>
			<REFERENCE>123456</REFERENCE>
			<AMOUNT>500</AMOUNT>
			<CUSTOMERMSISDN>254712345678</CUSTOMERMSISDN>
			<REFERENCE2>MOBQ-77</REFERENCE2>
		</COMMAND>`)

	data, err := parseFlatXML(body)
	require.NoError(t, err)
	require.Equal(t, "TX1", data["REFERENCE1"])
	require.Equal(t, "123456", data["REFERENCE"])
	require.Equal(t, "500", data["AMOUNT"])

	req := processingRequestFromAirtel(data)
	require.Equal(t, "TX1", req.TransactionID)
	require.Equal(t, "123456", req.BillRefNumber)
	require.Equal(t, 500.0, req.SettledAmount)
	require.Equal(t, 500.0, req.Amount)
	require.Equal(t, "MOBQ-77", req.MobiquityReference)
}

func TestParseFlatXML_Invalid(t *testing.T) {
	_, err := parseFlatXML([]byte(`<COMMAND><REFERENCE1>TX1`))
	require.Error(t, err)

	_, err = parseFlatXML([]byte(`<COMMAND></COMMAND>`))
	require.Error(t, err)
}

func TestIsXMLBody(t *testing.T) {
	require.True(t, isXMLBody([]byte("  <COMMAND></COMMAND>")))
	require.False(t, isXMLBody([]byte(`{"transactionId":"TX1"}`)))
}
