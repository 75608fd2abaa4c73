/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/blnkfinance/certify/config"
	"github.com/blnkfinance/certify/internal/request"
	"github.com/sirupsen/logrus"
)

func slackMessage(systemError error, at time.Time) map[string]interface{} {
	field := func(text string) map[string]interface{} {
		return map[string]interface{}{
			"type":   "section",
			"fields": []map[string]string{{"type": "mrkdwn", "text": text}},
		}
	}
	return map[string]interface{}{
		"blocks": []interface{}{
			map[string]interface{}{
				"type": "header",
				"text": map[string]interface{}{"type": "plain_text", "text": "Error From Certify 🐞", "emoji": true},
			},
			field(fmt.Sprintf("*Error:*\n%v", systemError)),
			field(fmt.Sprintf("*Time:*\n%v", at.Format(time.RFC822))),
		},
	}
}

// SlackNotification posts the error to a Slack incoming webhook.
func SlackNotification(ctx context.Context, webhookURL string, systemError error) error {
	return request.PostJSON(ctx, webhookURL, slackMessage(systemError, time.Now()), nil)
}

// NotifyError logs the error and, when a Slack webhook is configured, reports it there.
// The notification runs in its own goroutine.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			logrus.Error(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := SlackNotification(ctx, conf.Notification.Slack.WebhookUrl, systemError); err != nil {
			logrus.WithError(err).Warn("failed to send slack notification")
		}
	}(systemError)
}
