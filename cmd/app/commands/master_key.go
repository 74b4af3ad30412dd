package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	credentialDomain "github.com/allisson/credguard/internal/credential/domain"
	credentialService "github.com/allisson/credguard/internal/credential/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// for envelope encryption and prints the environment configuration to adopt it.
// Key material is zeroed from memory after encoding.
//
// When kmsProvider and kmsKeyURI are set, the key is wrapped by the KMS before
// output and the configuration uses ENCRYPTED_MASTER_KEYS. Without KMS flags
// the raw key is emitted base64-encoded as MASTER_KEYS, which is only suitable
// for development.
//
// If keyID is empty, a default ID in format "master-key-YYYY-MM-DD" is used.
func RunCreateMasterKey(keyID, kmsProvider, kmsKeyURI string) error {
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, credentialDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer credentialDomain.Zero(masterKey)

	if kmsProvider == "" && kmsKeyURI == "" {
		fmt.Println("# Master Key Configuration (plain mode, development only)")
		fmt.Println("# Copy these environment variables to your .env file or secrets manager")
		fmt.Println()
		fmt.Printf("MASTER_KEYS=\"%s:%s\"\n", keyID, base64.StdEncoding.EncodeToString(masterKey))
		fmt.Printf("ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
		fmt.Println()
		fmt.Println("# For production, wrap the key with a KMS:")
		fmt.Println("#   create-master-key --kms-provider=gcpkms --kms-key-uri=\"gcpkms://...\"")
		return nil
	}

	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri must be set together\n\nFor local development, use:\n  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\nFor production, use cloud KMS providers:\n  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n  --kms-provider=azurekeyvault --kms-key-uri=\"azurekeyvault://...\"",
		)
	}

	ctx := context.Background()

	kmsService := credentialService.NewKMSService()
	keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeperInterface.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	keeper, ok := keeperInterface.(interface {
		Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	})
	if !ok {
		return fmt.Errorf("KMS keeper does not support encryption")
	}

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	encodedKey := base64.StdEncoding.EncodeToString(ciphertext)

	fmt.Println("# Master Key Configuration (KMS Mode)")
	fmt.Println("# Copy these environment variables to your .env file or secrets manager")
	fmt.Println()
	fmt.Printf("KMS_PROVIDER=\"%s\"\n", kmsProvider)
	fmt.Printf("KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	fmt.Printf("ENCRYPTED_MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	fmt.Printf("ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	fmt.Println()
	fmt.Println("# For key rotation, wrap each key with the same KMS key:")
	fmt.Printf("# ENCRYPTED_MASTER_KEYS=\"%s:%s,new-key:base64-encoded-kms-ciphertext\"\n", keyID, encodedKey)
	fmt.Println("# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
