package portal

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/delistd/internal/profile"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	prof, err := profile.Default()
	if err != nil {
		t.Fatalf("profile.Default() error = %v", err)
	}
	prof.BaseURL = srv.URL

	c, err := NewClient(prof)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("write response: %v", err)
	}
}

func TestSendMessageSendsSessionHeaders(t *testing.T) {
	var gotReq *http.Request
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		writeEnvelope(t, w, `{"success":true,"result":{"msgId":123456}}`)
	}))

	auth := Auth{Cookie: "SUB=abc; api_uid=xyz", MallID: "634418"}
	msgID, err := c.SendMessage(context.Background(), auth, "", 1, "商品下架")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msgID != "123456" {
		t.Errorf("msgID = %q, want 123456 from a numeric field", msgID)
	}

	if got := gotReq.Header.Get("cookie"); got != auth.Cookie {
		t.Errorf("cookie header = %q, want %q", got, auth.Cookie)
	}
	if got := gotReq.Header.Get("mallid"); got != auth.MallID {
		t.Errorf("mallid header = %q, want %q", got, auth.MallID)
	}
	if got := gotReq.Header.Get("content-type"); got != "application/json" {
		t.Errorf("content-type = %q, want application/json", got)
	}
	if gotReq.Header.Get("user-agent") == "" {
		t.Error("user-agent header missing")
	}

	if gotBody["content"] != "商品下架" {
		t.Errorf("payload content = %v, want trigger text", gotBody["content"])
	}
	if _, ok := gotBody["parentMsgId"]; ok {
		t.Error("thread-opening message carried a parentMsgId")
	}
}

func TestSendMessageThreadsUnderParent(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		writeEnvelope(t, w, `{"success":true,"result":{"msgId":"m9"}}`)
	}))

	msgID, err := c.SendMessage(context.Background(), Auth{}, "m1", 7, `{"toolId":"42"}`)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msgID != "m9" {
		t.Errorf("msgID = %q, want m9", msgID)
	}
	if gotBody["parentMsgId"] != "m1" {
		t.Errorf("payload parentMsgId = %v, want m1", gotBody["parentMsgId"])
	}
}

func TestSendMessageRequiresMsgID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, `{"success":true,"result":{}}`)
	}))

	_, err := c.SendMessage(context.Background(), Auth{}, "", 1, "hi")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("SendMessage() error = %v, want *TransportError for missing msgId", err)
	}
}

func TestQueryMessagesToleratesNumericIDs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, `{"success":true,"result":{"messageList":[
			{"msgId":987,"content":"您好","contentType":1,"senderType":1001},
			{"msgId":"m2","content":"card","contentType":6,"senderType":1001}
		]}}`)
	}))

	msgs, err := c.QueryMessages(context.Background(), Auth{}, "m0", 20)
	if err != nil {
		t.Fatalf("QueryMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].MsgID != "987" {
		t.Errorf("msgs[0].MsgID = %q, want numeric id as string", msgs[0].MsgID)
	}
	if msgs[1].MsgID != "m2" || msgs[1].ContentType != 6 || msgs[1].SenderType != 1001 {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
}

func TestGzipResponseBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Encoding header; the portal sometimes compresses
		// without declaring it.
		zw := gzip.NewWriter(w)
		if _, err := zw.Write([]byte(`{"success":true,"result":{"list":[{"toolId":42,"toolName":"商品下架"}]}}`)); err != nil {
			t.Errorf("write gzip body: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Errorf("close gzip writer: %v", err)
		}
	}))

	tools, err := c.SelfServiceTools(context.Background(), Auth{})
	if err != nil {
		t.Fatalf("SelfServiceTools() error = %v", err)
	}
	if len(tools) != 1 || tools[0].ToolID != "42" || tools[0].ToolName != "商品下架" {
		t.Errorf("tools = %+v", tools)
	}
}

func TestRemoteRejectionSurfacesMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, `{"success":false,"msg":"登录已过期"}`)
	}))

	_, err := c.ProductBasicInfo(context.Background(), Auth{}, 101)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("ProductBasicInfo() error = %v, want *RemoteError", err)
	}
	if remoteErr.Msg != "登录已过期" {
		t.Errorf("Msg = %q, want portal message", remoteErr.Msg)
	}
}

func TestNonJSONBodyIsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>sign in</html>"))
	}))

	_, err := c.QueryMessages(context.Background(), Auth{}, "m0", 20)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("QueryMessages() error = %v, want *TransportError", err)
	}
}

func TestPreInterceptVerdicts(t *testing.T) {
	tests := []struct {
		name    string
		result  string
		allowed bool
		msg     string
	}{
		{"allowed", `{"interceptCode":0}`, true, ""},
		{"blocked with reason", `{"interceptCode":3,"interceptMsg":"商品存在进行中的活动"}`, false, "商品存在进行中的活动"},
		{"missing code blocks", `{}`, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(t, w, `{"success":true,"result":`+tt.result+`}`)
			}))

			verdict, err := c.PreIntercept(context.Background(), Auth{}, "42", 101)
			if err != nil {
				t.Fatalf("PreIntercept() error = %v", err)
			}
			if verdict.Allowed() != tt.allowed {
				t.Errorf("Allowed() = %v, want %v", verdict.Allowed(), tt.allowed)
			}
			if verdict.Msg != tt.msg {
				t.Errorf("Msg = %q, want %q", verdict.Msg, tt.msg)
			}
		})
	}
}

func TestCompliancePage(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		writeEnvelope(t, w, `{"success":true,"result":{
			"punish_appeal_entrance_list":[{"spu_id":101,"reason":"违规"}],
			"total":37
		}}`)
	}))

	page, err := c.CompliancePage(context.Background(), Auth{}, 2, 10)
	if err != nil {
		t.Fatalf("CompliancePage() error = %v", err)
	}
	if page.Total != 37 || len(page.Entries) != 1 {
		t.Errorf("page = %+v, want total 37 and one entry", page)
	}
	if gotBody["page_num"] != float64(2) || gotBody["page_size"] != float64(10) {
		t.Errorf("payload paging = %v/%v, want 2/10", gotBody["page_num"], gotBody["page_size"])
	}
	if gotBody["target_type"] != "goods" {
		t.Errorf("payload target_type = %v, want goods", gotBody["target_type"])
	}
}
