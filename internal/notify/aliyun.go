package notify

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
)

// AliyunNotifier sends through Alibaba Cloud SMS. The template must expose
// a ${message} variable.
type AliyunNotifier struct {
	client       *dysmsapi20170525.Client
	signName     string
	templateCode string
}

func NewAliyunNotifier(cfg Config) (*AliyunNotifier, error) {
	conf := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
	}
	conf.Endpoint = tea.String("dysmsapi.aliyuncs.com")

	client, err := dysmsapi20170525.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("create aliyun sms client: %w", err)
	}
	return &AliyunNotifier{
		client:       client,
		signName:     cfg.SignName,
		templateCode: cfg.TemplateCode,
	}, nil
}

func (a *AliyunNotifier) Send(ctx context.Context, n Notification) error {
	param, err := json.Marshal(map[string]string{"message": n.Message})
	if err != nil {
		return fmt.Errorf("encode template param: %w", err)
	}

	req := &dysmsapi20170525.SendSmsRequest{
		SignName:      tea.String(a.signName),
		TemplateCode:  tea.String(a.templateCode),
		PhoneNumbers:  tea.String(n.Phone),
		TemplateParam: tea.String(string(param)),
	}

	// The SDK call is not context aware.
	rsp, err := a.client.SendSmsWithOptions(req, &util.RuntimeOptions{})
	if err != nil {
		return fmt.Errorf("aliyun send sms: %w", err)
	}
	// A nil error still carries a business code; anything but OK failed.
	if rsp.Body == nil || tea.StringValue(rsp.Body.Code) != "OK" {
		var code, msg string
		if rsp.Body != nil {
			code, msg = tea.StringValue(rsp.Body.Code), tea.StringValue(rsp.Body.Message)
		}
		return fmt.Errorf("aliyun sms rejected: %s %s", code, msg)
	}
	return nil
}
