package notification

// テストからPermanent判定を使う
var IsPermanent = isPermanent
